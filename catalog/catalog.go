// Package catalog defines the metadata contracts consumed by the distinct-value
// cache layer: stable identifiers, table definitions with bidirectional
// column name/id lookup, and per-table cache metadata.
//
// The catalog itself is owned by the surrounding engine; this package exposes
// the read-side interface plus a static, immutable implementation built with
// NewBuilder() for embedding and tests. The static implementation is
// goroutine-safe because it is never mutated after Build().
package catalog

// Catalog is the top-level metadata container.
// Implementations MUST be goroutine-safe.
type Catalog interface {
	// Database returns the database schema for the given id.
	// Returns (nil, false) if the database does not exist.
	Database(id DatabaseID) (*DatabaseSchema, bool)

	// DatabaseByName returns the database schema with the given name.
	// Returns (nil, false) if the database does not exist.
	DatabaseByName(name string) (*DatabaseSchema, bool)
}

// DatabaseSchema holds the tables of a single database.
type DatabaseSchema struct {
	id     DatabaseID
	name   string
	byName map[string]*TableDefinition
	byID   map[TableID]*TableDefinition
}

// ID returns the database identifier.
func (d *DatabaseSchema) ID() DatabaseID { return d.id }

// Name returns the database name.
func (d *DatabaseSchema) Name() string { return d.name }

// TableDefinition returns the table with the given name.
// Returns (nil, false) if the table does not exist.
func (d *DatabaseSchema) TableDefinition(name string) (*TableDefinition, bool) {
	def, ok := d.byName[name]
	return def, ok
}

// TableDefinitionByID returns the table with the given id.
// Returns (nil, false) if the table does not exist.
func (d *DatabaseSchema) TableDefinitionByID(id TableID) (*TableDefinition, bool) {
	def, ok := d.byID[id]
	return def, ok
}

// TableDefinition describes a table: its identifier, its columns, and the
// distinct-value caches declared on it.
type TableDefinition struct {
	id       TableID
	name     string
	columns  []ColumnDefinition
	nameToID map[string]ColumnID
	idToName map[ColumnID]string
	caches   []CacheInfo
}

// ColumnDefinition is a single column of a table.
type ColumnDefinition struct {
	ID   ColumnID
	Name string
}

// CacheInfo is the declared metadata of a distinct-value cache: its identifier
// (unique within the table), its user-facing name, and the cached columns in
// cache key order.
type CacheInfo struct {
	ID      CacheID
	Name    string
	Columns []ColumnID
}

// ID returns the table identifier.
func (t *TableDefinition) ID() TableID { return t.id }

// Name returns the table name.
func (t *TableDefinition) Name() string { return t.name }

// Columns returns the table's columns in declaration order.
// The returned slice must not be modified.
func (t *TableDefinition) Columns() []ColumnDefinition { return t.columns }

// ColumnID resolves a column name to its identifier.
func (t *TableDefinition) ColumnID(name string) (ColumnID, bool) {
	id, ok := t.nameToID[name]
	return id, ok
}

// ColumnName resolves a column identifier to its name.
func (t *TableDefinition) ColumnName(id ColumnID) (string, bool) {
	name, ok := t.idToName[id]
	return name, ok
}

// Caches returns the distinct-value caches declared on the table, in
// declaration order. The returned slice must not be modified.
func (t *TableDefinition) Caches() []CacheInfo { return t.caches }

// CacheByName returns the cache with the given name.
func (t *TableDefinition) CacheByName(name string) (CacheInfo, bool) {
	for _, c := range t.caches {
		if c.Name == name {
			return c, true
		}
	}
	return CacheInfo{}, false
}
