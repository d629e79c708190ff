package catalog

// Identifiers are opaque, stable small integers assigned by the catalog.
// They are unique within their scope and never change for the lifetime of
// the entity they name; renaming a table does not change its TableID. Hot
// paths key on identifiers to avoid string comparisons.

// DatabaseID identifies a database within the catalog.
type DatabaseID uint32

// TableID identifies a table within a database.
type TableID uint32

// ColumnID identifies a column within a table.
type ColumnID uint32

// CacheID identifies a distinct-value cache within a table.
type CacheID uint32
