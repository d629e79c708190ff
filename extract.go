package distinctcache

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/MokerWill/distinctcache/catalog"
	"github.com/MokerWill/distinctcache/filter"
)

// ExtractConstraints converts a list of filter expressions into a map of
// column id to predicate, using literal-guarantee analysis of each
// expression.
//
// The shape of the filters the engine passes in varies with how the query was
// written and with the simplifications the planner applies. For example
//
//	WHERE host IN ('a', 'b')
//
// may arrive as an OR of two equality comparisons, while
//
//	WHERE host = 'a' OR host = 'b' OR host = 'c' OR host = 'd'
//
// may arrive as a single IN list. Rather than matching every combination of
// expression shapes here, each expression is distilled through
// filter.Analyze, which reduces both forms to the same inclusion guarantee.
//
// The main caveat is that multiple guarantees can land on the same column,
// e.g. from two separate filter expressions constraining it. Those are
// discarded entirely rather than merged, and the engine's own filtering
// remains authoritative for that column. It may be that two guarantees on a
// column could be combined losslessly, but so far that has not proven
// necessary.
//
// Guarantee literals are narrowed to string values: the cache stores string
// dictionaries only, so non-string literals are dropped from the set, and a
// guarantee whose set empties out is skipped. A guarantee naming a column the
// catalog does not know is a planning error; it means the planner and the
// catalog disagree and must not be silently ignored. Columns the table knows
// but the cache does not cover are skipped.
//
// The function is pure; it holds no state across calls.
func ExtractConstraints(tableDef *catalog.TableDefinition, cacheSchema *arrow.Schema, fp *filter.FilterPushdown) (*PredicateMap, error) {
	type slot struct {
		pred   Predicate
		voided bool
	}
	if fp == nil {
		return NewPredicateMap(), nil
	}

	var order []catalog.ColumnID
	slots := make(map[catalog.ColumnID]*slot)

	for _, expr := range fp.Filters {
		guarantees, err := filter.Analyze(expr, fp)
		if err != nil {
			return nil, planError(err, "invalid filter expression: %v", err)
		}
		for _, g := range guarantees {
			columnID, ok := tableDef.ColumnID(g.Column)
			if !ok {
				return nil, planErrorf("invalid column name in filter expression: %s", g.Column)
			}
			if cacheSchema != nil && len(cacheSchema.FieldIndices(g.Column)) == 0 {
				continue
			}

			values := make([]string, 0, len(g.Literals))
			for _, lit := range g.Literals {
				if s, ok := lit.StringData(); ok {
					values = append(values, s)
				}
			}
			if len(values) == 0 {
				// All literals were non-string; the guarantee is vacuous here.
				continue
			}

			var pred Predicate
			switch g.Kind {
			case filter.GuaranteeIn:
				pred = NewInPredicate(values)
			case filter.GuaranteeNotIn:
				pred = NewNotInPredicate(values)
			default:
				continue
			}

			if existing, ok := slots[columnID]; ok {
				// Multiple guarantees per column are not supported. The entry
				// is voided so the cache does not filter on it; the engine
				// still filters all records it receives.
				existing.voided = true
				continue
			}
			slots[columnID] = &slot{pred: pred}
			order = append(order, columnID)
		}
	}

	out := NewPredicateMap()
	for _, id := range order {
		if s := slots[id]; !s.voided {
			out.Set(id, s.pred)
		}
	}
	return out, nil
}
