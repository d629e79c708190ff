// Package recovery provides panic recovery around user-provided store
// implementations, so a misbehaving store cannot crash the query path.
package recovery

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// RecoverToError wraps a function call with panic recovery.
// If the function panics, the panic is logged with its stack trace and
// converted to an error. Use this to wrap user-provided store calls.
//
// Example:
//
//	err := recovery.RecoverToError(logger, "ToRecordBatch", func() error {
//	    rec, err = store.ToRecordBatch(schema, predicates, projection, limit)
//	    return err
//	})
func RecoverToError(logger *slog.Logger, operation string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger.Error("Panic recovered",
				"operation", operation,
				"panic", r,
				"stack", string(stack),
			)
			err = fmt.Errorf("internal error in %s: %v", operation, r)
		}
	}()

	return fn()
}
