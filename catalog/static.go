package catalog

import (
	"fmt"
)

// staticCatalog is an immutable catalog built from a Builder.
type staticCatalog struct {
	byID   map[DatabaseID]*DatabaseSchema
	byName map[string]*DatabaseSchema
}

// Database implements Catalog.
func (c *staticCatalog) Database(id DatabaseID) (*DatabaseSchema, bool) {
	db, ok := c.byID[id]
	return db, ok
}

// DatabaseByName implements Catalog.
func (c *staticCatalog) DatabaseByName(name string) (*DatabaseSchema, bool) {
	db, ok := c.byName[name]
	return db, ok
}

// Builder assembles a static catalog. Identifiers are assigned in registration
// order: databases and tables module-wide, columns per table, caches per table.
// Not goroutine-safe; build once, then share the resulting Catalog.
type Builder struct {
	databases []*DatabaseBuilder
	nextDB    DatabaseID
	nextTable TableID
	err       error
}

// NewBuilder creates an empty catalog builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Database registers a database and returns its builder.
func (b *Builder) Database(name string) *DatabaseBuilder {
	db := &DatabaseBuilder{
		parent: b,
		id:     b.nextDB,
		name:   name,
	}
	b.nextDB++
	b.databases = append(b.databases, db)
	return db
}

// Build validates the registered definitions and returns the catalog.
func (b *Builder) Build() (Catalog, error) {
	if b.err != nil {
		return nil, b.err
	}
	cat := &staticCatalog{
		byID:   make(map[DatabaseID]*DatabaseSchema, len(b.databases)),
		byName: make(map[string]*DatabaseSchema, len(b.databases)),
	}
	for _, db := range b.databases {
		if _, exists := cat.byName[db.name]; exists {
			return nil, fmt.Errorf("catalog: duplicate database name %q", db.name)
		}
		schema := &DatabaseSchema{
			id:     db.id,
			name:   db.name,
			byName: make(map[string]*TableDefinition, len(db.tables)),
			byID:   make(map[TableID]*TableDefinition, len(db.tables)),
		}
		for _, tb := range db.tables {
			def, err := tb.build()
			if err != nil {
				return nil, err
			}
			if _, exists := schema.byName[def.name]; exists {
				return nil, fmt.Errorf("catalog: duplicate table name %q in database %q", def.name, db.name)
			}
			schema.byName[def.name] = def
			schema.byID[def.id] = def
		}
		cat.byID[db.id] = schema
		cat.byName[db.name] = schema
	}
	return cat, nil
}

// DatabaseBuilder assembles the tables of one database.
type DatabaseBuilder struct {
	parent *Builder
	id     DatabaseID
	name   string
	tables []*TableBuilder
}

// ID returns the identifier assigned to the database.
func (d *DatabaseBuilder) ID() DatabaseID { return d.id }

// Table registers a table with the given columns, in order, and returns its
// builder. Column ids are assigned per table starting at zero.
func (d *DatabaseBuilder) Table(name string, columns ...string) *TableBuilder {
	tb := &TableBuilder{
		id:   d.parent.nextTable,
		name: name,
	}
	d.parent.nextTable++
	for i, col := range columns {
		tb.columns = append(tb.columns, ColumnDefinition{ID: ColumnID(i), Name: col})
	}
	d.tables = append(d.tables, tb)
	return tb
}

// TableBuilder assembles one table definition.
type TableBuilder struct {
	id        TableID
	name      string
	columns   []ColumnDefinition
	caches    []CacheInfo
	nextCache CacheID
	err       error
}

// ID returns the identifier assigned to the table.
func (t *TableBuilder) ID() TableID { return t.id }

// Cache declares a distinct-value cache over the named columns and returns its
// metadata. The columns must already exist on the table.
func (t *TableBuilder) Cache(name string, columns ...string) CacheInfo {
	info := CacheInfo{
		ID:   t.nextCache,
		Name: name,
	}
	t.nextCache++
	for _, col := range columns {
		id, ok := t.columnID(col)
		if !ok && t.err == nil {
			t.err = fmt.Errorf("catalog: cache %q references unknown column %q on table %q", name, col, t.name)
		}
		info.Columns = append(info.Columns, id)
	}
	t.caches = append(t.caches, info)
	return info
}

func (t *TableBuilder) columnID(name string) (ColumnID, bool) {
	for _, c := range t.columns {
		if c.Name == name {
			return c.ID, true
		}
	}
	return 0, false
}

func (t *TableBuilder) build() (*TableDefinition, error) {
	if t.err != nil {
		return nil, t.err
	}
	def := &TableDefinition{
		id:       t.id,
		name:     t.name,
		columns:  t.columns,
		nameToID: make(map[string]ColumnID, len(t.columns)),
		idToName: make(map[ColumnID]string, len(t.columns)),
		caches:   t.caches,
	}
	for _, c := range t.columns {
		if _, exists := def.nameToID[c.Name]; exists {
			return nil, fmt.Errorf("catalog: duplicate column name %q on table %q", c.Name, t.name)
		}
		def.nameToID[c.Name] = c.ID
		def.idToName[c.ID] = c.Name
	}
	seen := make(map[string]bool, len(t.caches))
	for _, c := range t.caches {
		if seen[c.Name] {
			return nil, fmt.Errorf("catalog: duplicate cache name %q on table %q", c.Name, t.name)
		}
		seen[c.Name] = true
	}
	return def, nil
}
