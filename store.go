package distinctcache

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/MokerWill/distinctcache/catalog"
)

// Store is the distinct-value store backing a single cache. Construction,
// ingest updates, and eviction are owned elsewhere; the query path only reads
// from it. Implementations MUST be goroutine-safe: materialization runs
// concurrently across queries under the registry's shared lock.
type Store interface {
	// Schema returns the store's declared output schema, independent of any
	// query's projection.
	Schema() *arrow.Schema

	// ToRecordBatch materializes the store's contents as a single record
	// batch with the given output schema. Predicates, when non-nil, narrow
	// the rows produced; projection, when non-nil, selects store column
	// indices matching the output schema's field order; limit, when positive,
	// caps the row count. The caller must release the returned record.
	//
	// Materialization is expected to be synchronous and bounded by in-memory
	// data size; it must not block on I/O.
	ToRecordBatch(schema *arrow.Schema, predicates *PredicateMap, projection []int, limit int64) (arrow.Record, error)
}

// StoreColumn pairs a cached column's catalog id with its name.
type StoreColumn struct {
	ID   catalog.ColumnID
	Name string
}

// StaticStore is a fixed in-memory Store holding the distinct value
// combinations of a set of string columns. It serves embedded setups and
// tests; live caches are fed by the ingest path and implement Store
// themselves.
type StaticStore struct {
	allocator memory.Allocator
	columns   []StoreColumn
	schema    *arrow.Schema
	rows      [][]string
}

// NewStaticStore creates a store over the given columns. Each row must have
// one value per column; rows are served in the order given.
func NewStaticStore(allocator memory.Allocator, columns []StoreColumn, rows [][]string) (*StaticStore, error) {
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("static store requires at least one column")
	}
	fields := make([]arrow.Field, len(columns))
	for i, col := range columns {
		fields[i] = arrow.Field{Name: col.Name, Type: arrow.BinaryTypes.String}
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}
	}
	return &StaticStore{
		allocator: allocator,
		columns:   columns,
		schema:    arrow.NewSchema(fields, nil),
		rows:      rows,
	}, nil
}

// Schema implements Store.
func (s *StaticStore) Schema() *arrow.Schema { return s.schema }

// ToRecordBatch implements Store.
func (s *StaticStore) ToRecordBatch(schema *arrow.Schema, predicates *PredicateMap, projection []int, limit int64) (arrow.Record, error) {
	selected := projection
	if selected == nil {
		selected = make([]int, len(s.columns))
		for i := range s.columns {
			selected[i] = i
		}
	}
	if len(selected) != schema.NumFields() {
		return nil, fmt.Errorf("projection selects %d columns but schema has %d fields", len(selected), schema.NumFields())
	}
	for _, idx := range selected {
		if idx < 0 || idx >= len(s.columns) {
			return nil, fmt.Errorf("projection index %d out of range", idx)
		}
	}

	builder := array.NewRecordBuilder(s.allocator, schema)
	defer builder.Release()

	var produced int64
	for _, row := range s.rows {
		if limit > 0 && produced == limit {
			break
		}
		if !s.rowMatches(row, predicates) {
			continue
		}
		for out, idx := range selected {
			builder.Field(out).(*array.StringBuilder).Append(row[idx])
		}
		produced++
	}

	return builder.NewRecord(), nil
}

func (s *StaticStore) rowMatches(row []string, predicates *PredicateMap) bool {
	if predicates == nil {
		return true
	}
	for i, col := range s.columns {
		pred, ok := predicates.Get(col.ID)
		if !ok {
			continue
		}
		if !pred.Matches(row[i]) {
			return false
		}
	}
	return true
}
