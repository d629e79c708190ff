package filter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Parse parses serialized filter pushdown JSON into expression trees.
// Returns a FilterPushdown containing parsed expressions and column bindings.
//
// Error conditions:
//   - Invalid JSON syntax
//   - Malformed expression nodes
//
// Unknown expression classes parse into UnsupportedExpression rather than
// failing, so that one exotic filter does not discard the whole list.
func Parse(data []byte) (*FilterPushdown, error) {
	if len(data) == 0 {
		return &FilterPushdown{}, nil
	}

	var raw rawFilterPushdown
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("filter: invalid JSON: %w", err)
	}

	fp := &FilterPushdown{
		ColumnBindings: raw.ColumnBindings,
		Filters:        make([]Expression, 0, len(raw.Filters)),
	}

	for i, rawExpr := range raw.Filters {
		expr, err := parseExpression(rawExpr)
		if err != nil {
			return nil, fmt.Errorf("filter: error parsing filter %d: %w", i, err)
		}
		fp.Filters = append(fp.Filters, expr)
	}

	return fp, nil
}

// rawFilterPushdown is the intermediate structure for JSON parsing.
type rawFilterPushdown struct {
	Filters        []json.RawMessage `json:"filters"`
	ColumnBindings []string          `json:"column_binding_names_by_index"`
}

// rawExpression is used for two-phase parsing to determine expression class.
type rawExpression struct {
	ExpressionClass string `json:"expression_class"`
	Type            string `json:"type"`
	Alias           string `json:"alias"`
}

// parseExpression parses a single expression from raw JSON.
func parseExpression(data json.RawMessage) (Expression, error) {
	var raw rawExpression
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}

	switch ExpressionClass(raw.ExpressionClass) {
	case ClassBoundComparison:
		return parseComparisonExpression(data)
	case ClassBoundConjunction:
		return parseConjunctionExpression(data)
	case ClassBoundConstant:
		return parseConstantExpression(data)
	case ClassBoundColumnRef:
		return parseColumnRefExpression(data)
	case ClassBoundFunction:
		return parseFunctionExpression(data)
	case ClassBoundCast:
		return parseCastExpression(data)
	case ClassBoundOperator:
		return parseOperatorExpression(data)
	default:
		// Return an unsupported expression that can be identified during analysis
		return &UnsupportedExpression{
			BaseExpression: BaseExpression{
				ExprClass: ExpressionClass(raw.ExpressionClass),
				ExprType:  ExpressionType(raw.Type),
				ExprAlias: raw.Alias,
			},
		}, nil
	}
}

// rawComparison is the JSON structure for comparison expressions.
type rawComparison struct {
	ExpressionClass string          `json:"expression_class"`
	Type            string          `json:"type"`
	Alias           string          `json:"alias"`
	Left            json.RawMessage `json:"left"`
	Right           json.RawMessage `json:"right"`
}

func parseComparisonExpression(data json.RawMessage) (*ComparisonExpression, error) {
	var raw rawComparison
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid comparison expression: %w", err)
	}

	left, err := parseExpression(raw.Left)
	if err != nil {
		return nil, fmt.Errorf("invalid left operand: %w", err)
	}

	right, err := parseExpression(raw.Right)
	if err != nil {
		return nil, fmt.Errorf("invalid right operand: %w", err)
	}

	return &ComparisonExpression{
		BaseExpression: BaseExpression{
			ExprClass: ExpressionClass(raw.ExpressionClass),
			ExprType:  ExpressionType(raw.Type),
			ExprAlias: raw.Alias,
		},
		Left:  left,
		Right: right,
	}, nil
}

// rawConjunction is the JSON structure for conjunction expressions.
type rawConjunction struct {
	ExpressionClass string            `json:"expression_class"`
	Type            string            `json:"type"`
	Alias           string            `json:"alias"`
	Children        []json.RawMessage `json:"children"`
}

func parseConjunctionExpression(data json.RawMessage) (*ConjunctionExpression, error) {
	var raw rawConjunction
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid conjunction expression: %w", err)
	}

	children := make([]Expression, 0, len(raw.Children))
	for i, child := range raw.Children {
		expr, err := parseExpression(child)
		if err != nil {
			return nil, fmt.Errorf("invalid child %d: %w", i, err)
		}
		children = append(children, expr)
	}

	return &ConjunctionExpression{
		BaseExpression: BaseExpression{
			ExprClass: ExpressionClass(raw.ExpressionClass),
			ExprType:  ExpressionType(raw.Type),
			ExprAlias: raw.Alias,
		},
		Children: children,
	}, nil
}

// rawConstant is the JSON structure for constant expressions.
type rawConstant struct {
	ExpressionClass string          `json:"expression_class"`
	Type            string          `json:"type"`
	Alias           string          `json:"alias"`
	Value           json.RawMessage `json:"value"`
}

func parseConstantExpression(data json.RawMessage) (*ConstantExpression, error) {
	var raw rawConstant
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid constant expression: %w", err)
	}

	value, err := parseValue(raw.Value)
	if err != nil {
		return nil, err
	}

	return &ConstantExpression{
		BaseExpression: BaseExpression{
			ExprClass: ExpressionClass(raw.ExpressionClass),
			ExprType:  ExpressionType(raw.Type),
			ExprAlias: raw.Alias,
		},
		Value: value,
	}, nil
}

// rawColumnRef is the JSON structure for column reference expressions.
type rawColumnRef struct {
	ExpressionClass string        `json:"expression_class"`
	Type            string        `json:"type"`
	Alias           string        `json:"alias"`
	ReturnType      LogicalType   `json:"return_type"`
	Binding         ColumnBinding `json:"binding"`
	Depth           int           `json:"depth"`
}

func parseColumnRefExpression(data json.RawMessage) (*ColumnRefExpression, error) {
	var raw rawColumnRef
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid column ref expression: %w", err)
	}

	return &ColumnRefExpression{
		BaseExpression: BaseExpression{
			ExprClass: ExpressionClass(raw.ExpressionClass),
			ExprType:  ExpressionType(raw.Type),
			ExprAlias: raw.Alias,
		},
		Binding:    raw.Binding,
		ReturnType: raw.ReturnType,
		Depth:      raw.Depth,
	}, nil
}

// rawFunction is the JSON structure for function expressions.
type rawFunction struct {
	ExpressionClass string            `json:"expression_class"`
	Type            string            `json:"type"`
	Alias           string            `json:"alias"`
	Name            string            `json:"name"`
	Children        []json.RawMessage `json:"children"`
	ReturnType      LogicalType       `json:"return_type"`
	IsOperator      bool              `json:"is_operator"`
}

func parseFunctionExpression(data json.RawMessage) (*FunctionExpression, error) {
	var raw rawFunction
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid function expression: %w", err)
	}

	children := make([]Expression, 0, len(raw.Children))
	for i, child := range raw.Children {
		expr, err := parseExpression(child)
		if err != nil {
			return nil, fmt.Errorf("invalid function child %d: %w", i, err)
		}
		children = append(children, expr)
	}

	return &FunctionExpression{
		BaseExpression: BaseExpression{
			ExprClass: ExpressionClass(raw.ExpressionClass),
			ExprType:  ExpressionType(raw.Type),
			ExprAlias: raw.Alias,
		},
		Name:       raw.Name,
		Children:   children,
		ReturnType: raw.ReturnType,
		IsOperator: raw.IsOperator,
	}, nil
}

// rawCast is the JSON structure for cast expressions.
type rawCast struct {
	ExpressionClass string          `json:"expression_class"`
	Type            string          `json:"type"`
	Alias           string          `json:"alias"`
	Child           json.RawMessage `json:"child"`
	ReturnType      LogicalType     `json:"return_type"`
	TryCast         bool            `json:"try_cast"`
}

func parseCastExpression(data json.RawMessage) (*CastExpression, error) {
	var raw rawCast
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid cast expression: %w", err)
	}

	child, err := parseExpression(raw.Child)
	if err != nil {
		return nil, fmt.Errorf("invalid cast child: %w", err)
	}

	return &CastExpression{
		BaseExpression: BaseExpression{
			ExprClass: ExpressionClass(raw.ExpressionClass),
			ExprType:  ExpressionType(raw.Type),
			ExprAlias: raw.Alias,
		},
		Child:      child,
		ReturnType: raw.ReturnType,
		TryCast:    raw.TryCast,
	}, nil
}

// rawOperator is the JSON structure for operator expressions.
type rawOperator struct {
	ExpressionClass string            `json:"expression_class"`
	Type            string            `json:"type"`
	Alias           string            `json:"alias"`
	Children        []json.RawMessage `json:"children"`
	ReturnType      LogicalType       `json:"return_type"`
}

func parseOperatorExpression(data json.RawMessage) (*OperatorExpression, error) {
	var raw rawOperator
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid operator expression: %w", err)
	}

	children := make([]Expression, 0, len(raw.Children))
	for i, child := range raw.Children {
		expr, err := parseExpression(child)
		if err != nil {
			return nil, fmt.Errorf("invalid operator child %d: %w", i, err)
		}
		children = append(children, expr)
	}

	return &OperatorExpression{
		BaseExpression: BaseExpression{
			ExprClass: ExpressionClass(raw.ExpressionClass),
			ExprType:  ExpressionType(raw.Type),
			ExprAlias: raw.Alias,
		},
		Children:   children,
		ReturnType: raw.ReturnType,
	}, nil
}

// parseValue parses a Value from JSON.
func parseValue(data json.RawMessage) (Value, error) {
	if len(data) == 0 || string(data) == "null" {
		return Value{IsNull: true}, nil
	}

	var raw struct {
		Type   LogicalType     `json:"type"`
		IsNull bool            `json:"is_null"`
		Value  json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Value{}, fmt.Errorf("invalid value: %w", err)
	}

	v := Value{
		Type:   raw.Type,
		IsNull: raw.IsNull,
	}

	if raw.IsNull || len(raw.Value) == 0 || string(raw.Value) == "null" {
		return v, nil
	}

	var err error
	v.Data, err = parseValueData(raw.Value, raw.Type)
	if err != nil {
		return Value{}, fmt.Errorf("invalid value data: %w", err)
	}

	return v, nil
}

// base64String represents a non-UTF8 string encoded as base64.
type base64String struct {
	Base64 string `json:"base64"`
}

// parseValueData parses the actual value data based on the logical type.
func parseValueData(data json.RawMessage, lt LogicalType) (any, error) {
	switch lt.ID.Normalize() {
	case TypeIDBoolean:
		var v bool
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil

	case TypeIDTinyInt, TypeIDSmallInt, TypeIDInteger, TypeIDBigInt,
		TypeIDDate, TypeIDTime, TypeIDTimestamp:
		var v int64
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil

	case TypeIDUTinyInt, TypeIDUSmallInt, TypeIDUInteger, TypeIDUBigInt:
		var v uint64
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil

	case TypeIDFloat, TypeIDDouble:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil

	case TypeIDVarchar, TypeIDChar:
		// Check for base64-encoded string
		var b64 base64String
		if err := json.Unmarshal(data, &b64); err == nil && b64.Base64 != "" {
			decoded, err := base64.StdEncoding.DecodeString(b64.Base64)
			if err != nil {
				return nil, fmt.Errorf("invalid base64: %w", err)
			}
			return string(decoded), nil
		}
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return s, nil

	case TypeIDBlob:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return []byte(s), nil

	case TypeIDList:
		var raw struct {
			Children []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		children := make([]Value, 0, len(raw.Children))
		for _, child := range raw.Children {
			v, err := parseValue(child)
			if err != nil {
				return nil, err
			}
			children = append(children, v)
		}
		return ListValue{Children: children}, nil

	default:
		// Unknown type: keep the raw JSON so the value round-trips, but
		// analysis will not derive guarantees from it.
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// ListValue represents a list value.
type ListValue struct {
	Children []Value `json:"children"`
}
