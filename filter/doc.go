// Package filter provides the engine-native representation of query filter
// expressions and the literal-guarantee analysis used for predicate pushdown.
//
// Filter expressions arrive as serialized JSON trees (the engine's bound
// expression form) and are parsed into strongly-typed Go structures:
//
//	fp, err := filter.Parse(scanOpts.Filter)
//	if err != nil {
//	    return err // Malformed JSON
//	}
//
// # Literal Guarantee Analysis
//
// Analyze distills a single filter expression into zero or more membership
// facts that provably hold whenever the expression evaluates to true:
//
//	guarantees, err := filter.Analyze(fp.Filters[0], fp)
//	// host = 'a' OR host = 'b'        -> [host In {a,b}]
//	// region NOT IN ('x','y')         -> [region NotIn {x,y}]
//	// host = 'a' AND region = 'east'  -> [host In {a}, region In {east}]
//
// The analysis is deliberately conservative: any expression shape it does not
// recognize contributes no guarantees, which only widens the data a consumer
// must post-filter. It never produces a guarantee that could exclude a
// matching row. The shapes recognized are:
//
//   - column = constant, column <> constant (either operand order)
//   - column IN (...), column NOT IN (...) in both the comparison and the
//     operator encodings the engine emits
//   - AND conjunctions (guarantees of all children combined)
//   - OR conjunctions where every branch guarantees an inclusion on the same
//     single column (branches merged into one In guarantee)
//   - casts around constants are looked through
//
// Everything else (ranges, IS NULL, functions, subqueries, parameters)
// yields no guarantees and is left for the engine's own filtering.
package filter
