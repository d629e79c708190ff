package distinctcache

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/MokerWill/distinctcache/catalog"
	"github.com/MokerWill/distinctcache/filter"
	"github.com/MokerWill/distinctcache/internal/msgpack"
)

// TableFunctionName is the name the table function registers under.
const TableFunctionName = "distinct_cache"

// PushdownSupport describes how a table handles a pushed-down filter.
type PushdownSupport int

const (
	// PushdownUnsupported means the filter cannot be used and the engine
	// must evaluate it in full.
	PushdownUnsupported PushdownSupport = iota
	// PushdownInexact means the filter narrows the scan but the engine must
	// still re-evaluate it over the output.
	PushdownInexact
	// PushdownExact means the scan applies the filter completely.
	PushdownExact
)

// ScanOptions carries the engine's per-query scan parameters.
type ScanOptions struct {
	// Columns to project, in requested output order. Empty means all
	// columns in schema order.
	Columns []string

	// Filter holds the serialized pushed-down filter expressions, if any.
	Filter []byte

	// Limit caps the number of rows produced when positive.
	Limit int64
}

// Table is a resolved table-function result the engine can plan a scan over.
type Table interface {
	// Name returns the table's display name.
	Name() string

	// ArrowSchema returns the table's full output schema.
	ArrowSchema() *arrow.Schema

	// PushdownSupport reports, for n candidate filters, how each would be
	// handled if pushed down.
	PushdownSupport(n int) []PushdownSupport

	// Scan plans a scan with the given options and returns its execution
	// node.
	Scan(ctx context.Context, opts *ScanOptions) (ExecNode, error)
}

// TableFunction resolves distinct_cache(<table>[, <cache>]) calls against a
// database's catalog and cache registry.
type TableFunction struct {
	db       catalog.DatabaseID
	registry *Registry
}

// NewTableFunction creates the resolver for the given database.
func NewTableFunction(db catalog.DatabaseID, registry *Registry) (*TableFunction, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: registry is required", ErrInvalidConfig)
	}
	return &TableFunction{db: db, registry: registry}, nil
}

// Name returns the function's registration name.
func (f *TableFunction) Name() string { return TableFunctionName }

// SchemaForParameters declares the function's positional parameters: the
// table name and an optional cache name, both strings.
func (f *TableFunction) SchemaForParameters() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "table_name", Type: arrow.BinaryTypes.String},
		{Name: "cache_name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
}

// Call resolves the function against its positional parameters. Argument and
// lookup failures are planning errors attributable to the statement; an
// inconsistency between the catalog and the registry is not.
func (f *TableFunction) Call(params []any) (Table, error) {
	if len(params) < 1 || len(params) > 2 {
		return nil, planErrorf("%s expects 1 or 2 arguments", TableFunctionName)
	}
	tableName, ok := params[0].(string)
	if !ok {
		return nil, planErrorf("first argument must be the table name as a string")
	}
	cacheName := ""
	if len(params) == 2 && params[1] != nil {
		cacheName, ok = params[1].(string)
		if !ok {
			return nil, planErrorf("second argument, if passed, must be the cache name as a string")
		}
	}

	dbSchema, ok := f.registry.Catalog().Database(f.db)
	if !ok {
		return nil, fmt.Errorf("%w: database %d not in catalog", ErrInvalidCacheState, f.db)
	}
	tableDef, ok := dbSchema.TableDefinition(tableName)
	if !ok {
		return nil, planErrorf("provided table name (%s) is invalid", tableName)
	}

	info, err := f.registry.ResolveCache(tableDef, cacheName)
	if err != nil {
		return nil, planError(err, "could not find distinct value cache for the given arguments")
	}

	schema, ok := f.registry.CacheSchema(f.db, tableDef.ID(), info.ID)
	if !ok {
		return nil, fmt.Errorf("%w: cache %q resolved but has no registered store", ErrInvalidCacheState, info.Name)
	}

	return &cacheTable{
		db:       f.db,
		registry: f.registry,
		tableDef: tableDef,
		cache:    info,
		schema:   schema,
	}, nil
}

// CallEncoded resolves the function from msgpack-encoded positional
// parameters, the form the wire protocol delivers them in.
func (f *TableFunction) CallEncoded(data []byte) (Table, error) {
	params, err := msgpack.DecodeSlice(data)
	if err != nil {
		return nil, planError(err, "invalid %s parameters", TableFunctionName)
	}
	return f.Call(params)
}

// cacheTable is the resolved scan target for one cache.
type cacheTable struct {
	db       catalog.DatabaseID
	registry *Registry
	tableDef *catalog.TableDefinition
	cache    catalog.CacheInfo
	schema   *arrow.Schema
}

// Name implements Table.
func (t *cacheTable) Name() string { return t.cache.Name }

// ArrowSchema implements Table.
func (t *cacheTable) ArrowSchema() *arrow.Schema { return t.schema }

// PushdownSupport implements Table. Every filter is accepted inexactly: the
// scan narrows rows where it can and never drops a filter's re-evaluation.
func (t *cacheTable) PushdownSupport(n int) []PushdownSupport {
	support := make([]PushdownSupport, n)
	for i := range support {
		support[i] = PushdownInexact
	}
	return support
}

// Scan implements Table.
func (t *cacheTable) Scan(ctx context.Context, opts *ScanOptions) (ExecNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &ScanOptions{}
	}

	var fp *filter.FilterPushdown
	if len(opts.Filter) != 0 {
		var err error
		fp, err = filter.Parse(opts.Filter)
		if err != nil {
			return nil, planError(err, "invalid filter expression")
		}
	}

	outSchema, projection, err := t.projectSchema(opts.Columns)
	if err != nil {
		return nil, err
	}

	rec, predicates, err := t.registry.scan(t.db, t.tableDef, t.cache.ID, fp, outSchema, projection, opts.Limit)
	if err != nil {
		return nil, err
	}

	var batches []arrow.Record
	if rec != nil {
		batches = append(batches, rec)
	}
	inner := newMemorySource(outSchema, batches)

	return &DistinctCacheExec{
		inner:      inner,
		tableDef:   t.tableDef,
		predicates: predicates,
		projected:  len(opts.Columns) > 0,
		limit:      opts.Limit,
	}, nil
}

// projectSchema narrows the cache schema to the requested columns, keeping
// the requested order. An empty request selects every column.
func (t *cacheTable) projectSchema(columns []string) (*arrow.Schema, []int, error) {
	if len(columns) == 0 {
		return t.schema, nil, nil
	}
	fields := make([]arrow.Field, len(columns))
	projection := make([]int, len(columns))
	for i, name := range columns {
		indices := t.schema.FieldIndices(name)
		if len(indices) == 0 {
			return nil, nil, planErrorf("provided column name (%s) is not in the cache", name)
		}
		projection[i] = indices[0]
		fields[i] = t.schema.Field(indices[0])
	}
	return arrow.NewSchema(fields, nil), projection, nil
}
