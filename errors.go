package distinctcache

import (
	"errors"
	"fmt"
)

// Standard errors returned by the distinctcache package.
var (
	// ErrInvalidConfig indicates RegistryConfig validation failed.
	ErrInvalidConfig = errors.New("invalid registry config")

	// ErrInvalidCacheState indicates the registry and catalog have become
	// inconsistent: the catalog names a cache whose store is missing at a
	// point where the benign-race policy does not apply. This is an internal
	// invariant violation, not a user error.
	ErrInvalidCacheState = errors.New("distinct cache state is invalid")

	// ErrCacheNotFound indicates no cache matched the requested name, or a
	// table without caches was queried without naming one.
	ErrCacheNotFound = errors.New("distinct cache not found")

	// ErrCacheAmbiguous indicates a table has multiple caches and none was
	// named, so the caller must disambiguate.
	ErrCacheAmbiguous = errors.New("distinct cache selection is ambiguous")

	// ErrCacheExists indicates a cache with the same identity is already
	// registered.
	ErrCacheExists = errors.New("distinct cache already exists")
)

// PlanError is a user-facing query planning failure: malformed table-function
// arguments, unknown tables or columns, or unresolvable cache names. Plan
// errors abort query compilation before any execution; they are distinct from
// internal invariant errors so operators can tell a bad query from a bug.
type PlanError struct {
	msg string
	err error
}

func (e *PlanError) Error() string { return e.msg }

func (e *PlanError) Unwrap() error { return e.err }

// IsPlanError reports whether err is (or wraps) a planning error.
func IsPlanError(err error) bool {
	var pe *PlanError
	return errors.As(err, &pe)
}

func planErrorf(format string, args ...any) *PlanError {
	return &PlanError{msg: fmt.Sprintf(format, args...)}
}

func planError(err error, format string, args ...any) *PlanError {
	return &PlanError{msg: fmt.Sprintf(format, args...), err: err}
}
