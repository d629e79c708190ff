package filter

import "fmt"

// ExpressionClass identifies the category of a bound expression.
type ExpressionClass string

const (
	ClassBoundCast        ExpressionClass = "BOUND_CAST"
	ClassBoundColumnRef   ExpressionClass = "BOUND_COLUMN_REF"
	ClassBoundComparison  ExpressionClass = "BOUND_COMPARISON"
	ClassBoundConjunction ExpressionClass = "BOUND_CONJUNCTION"
	ClassBoundConstant    ExpressionClass = "BOUND_CONSTANT"
	ClassBoundFunction    ExpressionClass = "BOUND_FUNCTION"
	ClassBoundOperator    ExpressionClass = "BOUND_OPERATOR"
)

// ExpressionType identifies the specific operation type.
type ExpressionType string

const (
	// Comparison operators
	TypeCompareEqual              ExpressionType = "COMPARE_EQUAL"
	TypeCompareNotEqual           ExpressionType = "COMPARE_NOTEQUAL"
	TypeCompareLessThan           ExpressionType = "COMPARE_LESSTHAN"
	TypeCompareGreaterThan        ExpressionType = "COMPARE_GREATERTHAN"
	TypeCompareLessThanOrEqual    ExpressionType = "COMPARE_LESSTHANOREQUALTO"
	TypeCompareGreaterThanOrEqual ExpressionType = "COMPARE_GREATERTHANOREQUALTO"
	TypeCompareIn                 ExpressionType = "COMPARE_IN"
	TypeCompareNotIn              ExpressionType = "COMPARE_NOT_IN"

	// Conjunction operators
	TypeConjunctionAnd ExpressionType = "CONJUNCTION_AND"
	TypeConjunctionOr  ExpressionType = "CONJUNCTION_OR"

	// Unary/n-ary operators
	TypeOperatorNot       ExpressionType = "OPERATOR_NOT"
	TypeOperatorIsNull    ExpressionType = "OPERATOR_IS_NULL"
	TypeOperatorIsNotNull ExpressionType = "OPERATOR_IS_NOT_NULL"

	// Value types
	TypeValueConstant ExpressionType = "VALUE_CONSTANT"

	// Other
	TypeFunction       ExpressionType = "FUNCTION"
	TypeBoundFunction  ExpressionType = "BOUND_FUNCTION"
	TypeCast           ExpressionType = "CAST"
	TypeBoundColumnRef ExpressionType = "BOUND_COLUMN_REF"
)

// Expression is the interface implemented by all filter expression types.
// Use type assertions or type switches to access specific expression data.
type Expression interface {
	// Class returns the expression class (e.g., BOUND_COMPARISON).
	Class() ExpressionClass

	// Type returns the specific expression type (e.g., COMPARE_EQUAL).
	Type() ExpressionType

	// Alias returns the optional alias for the expression.
	Alias() string

	// expressionMarker is a marker method to prevent external implementation.
	expressionMarker()
}

// BaseExpression contains common fields for all expression types.
type BaseExpression struct {
	ExprClass ExpressionClass `json:"expression_class"`
	ExprType  ExpressionType  `json:"type"`
	ExprAlias string          `json:"alias"`
}

// Class returns the expression class.
func (b *BaseExpression) Class() ExpressionClass { return b.ExprClass }

// Type returns the expression type.
func (b *BaseExpression) Type() ExpressionType { return b.ExprType }

// Alias returns the expression alias.
func (b *BaseExpression) Alias() string { return b.ExprAlias }

func (b *BaseExpression) expressionMarker() {}

// ColumnBinding identifies a column by table and column index.
type ColumnBinding struct {
	TableIndex  int `json:"table_index"`
	ColumnIndex int `json:"column_index"`
}

// FilterPushdown is the top-level container for parsed filter JSON.
type FilterPushdown struct {
	// Filters contains the parsed filter expressions.
	// Multiple filters are implicitly AND'ed together.
	Filters []Expression

	// ColumnBindings maps column binding indices to column names.
	ColumnBindings []string
}

// ColumnName resolves a column name from a ColumnRefExpression.
// Returns an error if the binding index is out of range.
func (fp *FilterPushdown) ColumnName(ref *ColumnRefExpression) (string, error) {
	if ref.Binding.ColumnIndex < 0 || ref.Binding.ColumnIndex >= len(fp.ColumnBindings) {
		return "", &ColumnBindingError{Index: ref.Binding.ColumnIndex, Max: len(fp.ColumnBindings)}
	}
	return fp.ColumnBindings[ref.Binding.ColumnIndex], nil
}

// ColumnBindingError indicates an invalid column binding index.
type ColumnBindingError struct {
	Index int
	Max   int
}

func (e *ColumnBindingError) Error() string {
	return fmt.Sprintf("invalid column binding index: %d (max: %d)", e.Index, e.Max-1)
}

// ComparisonExpression represents binary comparisons (=, <>, <, >, <=, >=, IN, NOT IN).
type ComparisonExpression struct {
	BaseExpression
	Left  Expression
	Right Expression
}

// ConjunctionExpression represents AND/OR with multiple children.
type ConjunctionExpression struct {
	BaseExpression
	Children []Expression
}

// ConstantExpression represents a literal value.
type ConstantExpression struct {
	BaseExpression
	Value Value
}

// ColumnRefExpression represents a reference to a table column.
type ColumnRefExpression struct {
	BaseExpression
	Binding    ColumnBinding
	ReturnType LogicalType
	Depth      int
}

// FunctionExpression represents a function call. The engine encodes the value
// list of an IN comparison as a list_value function over the member constants.
type FunctionExpression struct {
	BaseExpression
	Name       string
	Children   []Expression
	ReturnType LogicalType
	IsOperator bool
}

// CastExpression represents a type cast.
type CastExpression struct {
	BaseExpression
	Child      Expression
	ReturnType LogicalType
	TryCast    bool
}

// OperatorExpression represents unary or n-ary operators (IS NULL, NOT, and
// the operator encoding of IN/NOT IN where the first child is the probe and
// the rest are the list members).
type OperatorExpression struct {
	BaseExpression
	Children   []Expression
	ReturnType LogicalType
}

// UnsupportedExpression represents an expression class that this layer does
// not model. Parsing succeeds so that the surrounding filter list remains
// usable; analysis treats the expression as contributing no guarantees.
type UnsupportedExpression struct {
	BaseExpression
}
