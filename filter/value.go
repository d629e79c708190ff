package filter

// LogicalTypeID identifies engine logical data types.
type LogicalTypeID string

const (
	TypeIDInvalid   LogicalTypeID = "INVALID"
	TypeIDSQLNull   LogicalTypeID = "SQLNULL"
	TypeIDBoolean   LogicalTypeID = "BOOLEAN"
	TypeIDTinyInt   LogicalTypeID = "TINYINT"
	TypeIDSmallInt  LogicalTypeID = "SMALLINT"
	TypeIDInteger   LogicalTypeID = "INTEGER"
	TypeIDBigInt    LogicalTypeID = "BIGINT"
	TypeIDUTinyInt  LogicalTypeID = "UTINYINT"
	TypeIDUSmallInt LogicalTypeID = "USMALLINT"
	TypeIDUInteger  LogicalTypeID = "UINTEGER"
	TypeIDUBigInt   LogicalTypeID = "UBIGINT"
	TypeIDFloat     LogicalTypeID = "FLOAT"
	TypeIDDouble    LogicalTypeID = "DOUBLE"
	TypeIDChar      LogicalTypeID = "CHAR"
	TypeIDVarchar   LogicalTypeID = "VARCHAR"
	TypeIDBlob      LogicalTypeID = "BLOB"
	TypeIDDate      LogicalTypeID = "DATE"
	TypeIDTime      LogicalTypeID = "TIME"
	TypeIDTimestamp LogicalTypeID = "TIMESTAMP"
	TypeIDList      LogicalTypeID = "LIST"
)

// typeIDMapping maps engine type aliases to normalized short names.
var typeIDMapping = map[LogicalTypeID]LogicalTypeID{
	"INT":    TypeIDInteger,
	"INT4":   TypeIDInteger,
	"INT8":   TypeIDBigInt,
	"INT2":   TypeIDSmallInt,
	"INT1":   TypeIDTinyInt,
	"UINT8":  TypeIDUBigInt,
	"UINT4":  TypeIDUInteger,
	"UINT2":  TypeIDUSmallInt,
	"UINT1":  TypeIDUTinyInt,
	"FLOAT4": TypeIDFloat,
	"FLOAT8": TypeIDDouble,
	"REAL":   TypeIDFloat,
	"STRING": TypeIDVarchar,
	"TEXT":   TypeIDVarchar,
	"BOOL":   TypeIDBoolean,
}

// Normalize returns the canonical LogicalTypeID for the given type ID.
func (t LogicalTypeID) Normalize() LogicalTypeID {
	if mapped, ok := typeIDMapping[t]; ok {
		return mapped
	}
	return t
}

// IsString returns true if the type is a character string type. Blobs are
// excluded: the distinct-value cache stores UTF-8 dictionaries only.
func (t LogicalTypeID) IsString() bool {
	switch t.Normalize() {
	case TypeIDVarchar, TypeIDChar:
		return true
	}
	return false
}

// IsNumeric returns true if the type is a numeric type.
func (t LogicalTypeID) IsNumeric() bool {
	switch t.Normalize() {
	case TypeIDTinyInt, TypeIDSmallInt, TypeIDInteger, TypeIDBigInt,
		TypeIDUTinyInt, TypeIDUSmallInt, TypeIDUInteger, TypeIDUBigInt,
		TypeIDFloat, TypeIDDouble:
		return true
	}
	return false
}

// LogicalType represents an engine logical type.
type LogicalType struct {
	ID LogicalTypeID `json:"id"`
}

// Value represents a typed constant value.
type Value struct {
	Type   LogicalType `json:"type"`
	IsNull bool        `json:"is_null"`
	Data   any         `json:"value"` // Type-specific data
}

// StringData returns the value as a Go string for character string types.
// Returns ("", false) for nulls and non-string types.
func (v Value) StringData() (string, bool) {
	if v.IsNull || !v.Type.ID.IsString() {
		return "", false
	}
	s, ok := v.Data.(string)
	return s, ok
}
