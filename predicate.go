package distinctcache

import (
	"slices"
	"strings"

	"github.com/MokerWill/distinctcache/catalog"
)

// PredicateKind is the polarity of a predicate. In orders before NotIn.
type PredicateKind int8

const (
	// PredicateIn requires the column's value to be a member of the set.
	PredicateIn PredicateKind = iota
	// PredicateNotIn requires the column's value to not be a member of the set.
	PredicateNotIn
)

// Predicate is a membership constraint on a single string-valued column. The
// cache layer never constructs a predicate spanning multiple columns, and
// never expresses ranges or non-string constraints; those stay with the
// engine's own filtering. The value set is held sorted and deduplicated so
// that rendering and comparison are reproducible across runs.
type Predicate struct {
	kind   PredicateKind
	values []string
}

// NewInPredicate builds an inclusion predicate from the given values.
func NewInPredicate(values []string) Predicate {
	return newPredicate(PredicateIn, values)
}

// NewNotInPredicate builds an exclusion predicate from the given values.
func NewNotInPredicate(values []string) Predicate {
	return newPredicate(PredicateNotIn, values)
}

func newPredicate(kind PredicateKind, values []string) Predicate {
	vs := slices.Clone(values)
	slices.Sort(vs)
	vs = slices.Compact(vs)
	return Predicate{kind: kind, values: vs}
}

// Kind returns the predicate's polarity.
func (p Predicate) Kind() PredicateKind { return p.kind }

// Values returns the predicate's value set in sorted order.
// The returned slice must not be modified.
func (p Predicate) Values() []string { return p.values }

// Matches reports whether a column value satisfies the predicate.
func (p Predicate) Matches(v string) bool {
	_, found := slices.BinarySearch(p.values, v)
	if p.kind == PredicateIn {
		return found
	}
	return !found
}

// Compare orders predicates by kind (In before NotIn), then by value sets.
func (p Predicate) Compare(o Predicate) int {
	if p.kind != o.kind {
		if p.kind < o.kind {
			return -1
		}
		return 1
	}
	return slices.Compare(p.values, o.values)
}

// Equal reports whether two predicates have the same kind and value set.
func (p Predicate) Equal(o Predicate) bool { return p.Compare(o) == 0 }

// String renders the predicate in its diagnostic form, e.g. "IN (a,b)" or
// "NOT IN (a,b)".
func (p Predicate) String() string {
	var sb strings.Builder
	if p.kind == PredicateNotIn {
		sb.WriteString("NOT ")
	}
	sb.WriteString("IN (")
	sb.WriteString(strings.Join(p.values, ","))
	sb.WriteString(")")
	return sb.String()
}

// PredicateMap is an insertion-ordered mapping from column id to predicate:
// iteration follows the order columns were first inserted, not a hash or
// sorted order, so diagnostic output is stable for a given query. At most one
// predicate is held per column.
type PredicateMap struct {
	order   []catalog.ColumnID
	entries map[catalog.ColumnID]Predicate
}

// NewPredicateMap creates an empty predicate map.
func NewPredicateMap() *PredicateMap {
	return &PredicateMap{entries: make(map[catalog.ColumnID]Predicate)}
}

// Set inserts or replaces the predicate for a column. A replaced column keeps
// its original position in the iteration order.
func (m *PredicateMap) Set(id catalog.ColumnID, p Predicate) {
	if _, exists := m.entries[id]; !exists {
		m.order = append(m.order, id)
	}
	m.entries[id] = p
}

// Get returns the predicate for a column.
func (m *PredicateMap) Get(id catalog.ColumnID) (Predicate, bool) {
	p, ok := m.entries[id]
	return p, ok
}

// Len returns the number of constrained columns.
func (m *PredicateMap) Len() int { return len(m.entries) }

// Columns returns the constrained column ids in insertion order.
// The returned slice must not be modified.
func (m *PredicateMap) Columns() []catalog.ColumnID { return m.order }
