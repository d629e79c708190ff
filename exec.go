package distinctcache

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/MokerWill/distinctcache/catalog"
)

// ExecNode is a node in a physical query plan. Nodes are single-use:
// Execute may be called at most once.
type ExecNode interface {
	// Name returns the node's display name.
	Name() string

	// Schema returns the node's output schema.
	Schema() *arrow.Schema

	// Children returns the node's child nodes.
	Children() []ExecNode

	// Execute produces the node's output stream. The caller must release
	// the returned reader.
	Execute(ctx context.Context) (array.RecordReader, error)

	// String renders the node for plan display. The rendering is
	// deterministic for a given plan, so plans can be asserted on and
	// diffed across runs.
	String() string
}

// memorySource serves batches already materialized in memory. It owns a
// reference to each batch until executed or until the batches are handed to
// the reader.
type memorySource struct {
	schema   *arrow.Schema
	batches  []arrow.Record
	rows     int64
	executed atomic.Bool
}

func newMemorySource(schema *arrow.Schema, batches []arrow.Record) *memorySource {
	var rows int64
	for _, rec := range batches {
		rows += rec.NumRows()
	}
	return &memorySource{schema: schema, batches: batches, rows: rows}
}

// Name implements ExecNode.
func (m *memorySource) Name() string { return "MemorySourceExec" }

// Schema implements ExecNode.
func (m *memorySource) Schema() *arrow.Schema { return m.schema }

// Children implements ExecNode.
func (m *memorySource) Children() []ExecNode { return nil }

// Execute implements ExecNode. The node's batch references transfer to the
// reader; a second call is an error rather than a silent empty stream.
func (m *memorySource) Execute(ctx context.Context) (array.RecordReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !m.executed.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%s executed twice", m.Name())
	}
	reader, err := array.NewRecordReader(m.schema, m.batches)
	if err != nil {
		return nil, err
	}
	for _, rec := range m.batches {
		rec.Release()
	}
	m.batches = nil
	return reader, nil
}

// String implements ExecNode.
func (m *memorySource) String() string {
	return fmt.Sprintf("MemorySourceExec: batches=%d, rows=%d", len(m.batches), m.rows)
}

// DistinctCacheExec is the scan node over a distinct value cache. The
// contents are materialized at planning time; execution only streams them
// through the inner memory source. The node renders the projection, limit,
// and extracted predicates that shaped the materialization so a plan reader
// can see exactly what the cache was asked for.
type DistinctCacheExec struct {
	inner      ExecNode
	tableDef   *catalog.TableDefinition
	predicates *PredicateMap
	projected  bool
	limit      int64
}

// Name implements ExecNode.
func (e *DistinctCacheExec) Name() string { return "DistinctCacheExec" }

// Schema implements ExecNode.
func (e *DistinctCacheExec) Schema() *arrow.Schema { return e.inner.Schema() }

// Children implements ExecNode. The node is a leaf: the memory source is an
// implementation detail, not a plan child the engine may rewrite.
func (e *DistinctCacheExec) Children() []ExecNode { return nil }

// Execute implements ExecNode.
func (e *DistinctCacheExec) Execute(ctx context.Context) (array.RecordReader, error) {
	return e.inner.Execute(ctx)
}

// Predicates returns the constraints extracted from the pushed-down filters,
// or nil when none applied.
func (e *DistinctCacheExec) Predicates() *PredicateMap {
	if e.predicates == nil || e.predicates.Len() == 0 {
		return nil
	}
	return e.predicates
}

// String implements ExecNode.
func (e *DistinctCacheExec) String() string {
	var sb strings.Builder
	sb.WriteString("DistinctCacheExec:")
	if e.projected {
		fields := e.Schema().Fields()
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.Name
		}
		fmt.Fprintf(&sb, " projection=[%s]", strings.Join(names, ", "))
	}
	if e.limit > 0 {
		fmt.Fprintf(&sb, " limit=%d", e.limit)
	}
	if preds := e.Predicates(); preds != nil {
		entries := make([]string, 0, preds.Len())
		for _, id := range preds.Columns() {
			pred, _ := preds.Get(id)
			name, _ := e.tableDef.ColumnName(id)
			entries = append(entries, fmt.Sprintf("[%s@%d %s]", name, id, pred))
		}
		fmt.Fprintf(&sb, " predicates=[%s]", strings.Join(entries, ", "))
	}
	sb.WriteString(" inner=")
	sb.WriteString(e.inner.String())
	return sb.String()
}
