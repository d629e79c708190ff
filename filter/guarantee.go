package filter

// GuaranteeKind is the polarity of a literal guarantee.
type GuaranteeKind int8

const (
	// GuaranteeIn states the column must equal one of the literals.
	GuaranteeIn GuaranteeKind = iota
	// GuaranteeNotIn states the column must not equal any of the literals.
	GuaranteeNotIn
)

func (k GuaranteeKind) String() string {
	switch k {
	case GuaranteeIn:
		return "In"
	case GuaranteeNotIn:
		return "NotIn"
	default:
		return "Unknown"
	}
}

// LiteralGuarantee is a membership fact implied by a filter expression: for
// the expression to evaluate to true, the named column's value must be in
// (or not in) the literal set. Literals keep their engine types; consumers
// filter by type as needed.
type LiteralGuarantee struct {
	Column   string
	Kind     GuaranteeKind
	Literals []Value
}

// Analyze derives the literal guarantees implied by a single filter
// expression, resolving column references through the pushdown's bindings.
//
// The result is conservative: an empty slice means no facts could be proven,
// not that the expression is unselective. The only error condition is a
// column binding index that cannot be resolved, which indicates the filter
// and its binding table are inconsistent.
func Analyze(expr Expression, fp *FilterPushdown) ([]LiteralGuarantee, error) {
	return analyzeExpr(expr, fp)
}

func analyzeExpr(e Expression, fp *FilterPushdown) ([]LiteralGuarantee, error) {
	switch ex := e.(type) {
	case *ComparisonExpression:
		return analyzeComparison(ex, fp)
	case *ConjunctionExpression:
		switch ex.Type() {
		case TypeConjunctionAnd:
			return analyzeConjunction(ex, fp)
		case TypeConjunctionOr:
			return analyzeDisjunction(ex, fp)
		}
		return nil, nil
	case *OperatorExpression:
		// The operator encoding of IN/NOT IN: children[0] is the probe,
		// the remaining children are the list members.
		switch ex.Type() {
		case TypeCompareIn:
			return analyzeOperatorIn(ex, fp, GuaranteeIn)
		case TypeCompareNotIn:
			return analyzeOperatorIn(ex, fp, GuaranteeNotIn)
		}
		return nil, nil
	default:
		return nil, nil
	}
}

func analyzeComparison(c *ComparisonExpression, fp *FilterPushdown) ([]LiteralGuarantee, error) {
	switch c.Type() {
	case TypeCompareEqual, TypeCompareNotEqual:
		kind := GuaranteeIn
		if c.Type() == TypeCompareNotEqual {
			kind = GuaranteeNotIn
		}
		// Accept the column on either side of the comparison.
		for _, pair := range [2][2]Expression{{c.Left, c.Right}, {c.Right, c.Left}} {
			ref, ok := pair[0].(*ColumnRefExpression)
			if !ok {
				continue
			}
			lit, ok := constantOf(pair[1])
			if !ok {
				continue
			}
			column, err := fp.ColumnName(ref)
			if err != nil {
				return nil, err
			}
			return []LiteralGuarantee{{Column: column, Kind: kind, Literals: []Value{lit}}}, nil
		}
		return nil, nil

	case TypeCompareIn, TypeCompareNotIn:
		kind := GuaranteeIn
		if c.Type() == TypeCompareNotIn {
			kind = GuaranteeNotIn
		}
		ref, ok := c.Left.(*ColumnRefExpression)
		if !ok {
			return nil, nil
		}
		literals, ok := listMembers(c.Right)
		if !ok || len(literals) == 0 {
			return nil, nil
		}
		column, err := fp.ColumnName(ref)
		if err != nil {
			return nil, err
		}
		return []LiteralGuarantee{{Column: column, Kind: kind, Literals: literals}}, nil

	default:
		return nil, nil
	}
}

// analyzeConjunction combines guarantees across AND children: each child must
// hold, so every child guarantee holds. Children yielding no guarantees
// contribute nothing.
func analyzeConjunction(c *ConjunctionExpression, fp *FilterPushdown) ([]LiteralGuarantee, error) {
	var out []LiteralGuarantee
	for _, child := range c.Children {
		gs, err := analyzeExpr(child, fp)
		if err != nil {
			return nil, err
		}
		out = append(out, gs...)
	}
	return out, nil
}

// analyzeDisjunction merges OR branches into a single inclusion guarantee.
// This is only sound when every branch implies an In guarantee on the same
// column: the overall expression then guarantees membership in the union of
// the branch sets. Exclusion guarantees do not merge across OR (the union of
// NotIn sets is weaker than any branch), so any NotIn branch voids the
// analysis.
func analyzeDisjunction(c *ConjunctionExpression, fp *FilterPushdown) ([]LiteralGuarantee, error) {
	if len(c.Children) == 0 {
		return nil, nil
	}
	merged := LiteralGuarantee{Kind: GuaranteeIn}
	for i, child := range c.Children {
		gs, err := analyzeExpr(child, fp)
		if err != nil {
			return nil, err
		}
		if len(gs) != 1 || gs[0].Kind != GuaranteeIn {
			return nil, nil
		}
		if i == 0 {
			merged.Column = gs[0].Column
		} else if gs[0].Column != merged.Column {
			return nil, nil
		}
		merged.Literals = append(merged.Literals, gs[0].Literals...)
	}
	return []LiteralGuarantee{merged}, nil
}

func analyzeOperatorIn(o *OperatorExpression, fp *FilterPushdown, kind GuaranteeKind) ([]LiteralGuarantee, error) {
	if len(o.Children) < 2 {
		return nil, nil
	}
	ref, ok := o.Children[0].(*ColumnRefExpression)
	if !ok {
		return nil, nil
	}
	literals := make([]Value, 0, len(o.Children)-1)
	for _, child := range o.Children[1:] {
		lit, ok := constantOf(child)
		if !ok {
			return nil, nil
		}
		literals = append(literals, lit)
	}
	column, err := fp.ColumnName(ref)
	if err != nil {
		return nil, err
	}
	return []LiteralGuarantee{{Column: column, Kind: kind, Literals: literals}}, nil
}

// constantOf extracts a constant value, looking through casts of constants.
func constantOf(e Expression) (Value, bool) {
	switch ex := e.(type) {
	case *ConstantExpression:
		return ex.Value, true
	case *CastExpression:
		return constantOf(ex.Child)
	default:
		return Value{}, false
	}
}

// listMembers extracts the member constants of an IN list. The engine encodes
// the list either as a list_value function over the members or as a single
// list constant.
func listMembers(e Expression) ([]Value, bool) {
	switch ex := e.(type) {
	case *FunctionExpression:
		literals := make([]Value, 0, len(ex.Children))
		for _, child := range ex.Children {
			lit, ok := constantOf(child)
			if !ok {
				return nil, false
			}
			literals = append(literals, lit)
		}
		return literals, true
	case *ConstantExpression:
		list, ok := ex.Value.Data.(ListValue)
		if !ok {
			return nil, false
		}
		return list.Children, true
	default:
		return nil, false
	}
}
