package distinctcache

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
)

// filterJSON builds a serialized pushdown with the given filters over the
// cpu table's column bindings.
func filterJSON(filters ...string) []byte {
	return []byte(fmt.Sprintf(
		`{"filters":[%s],"column_binding_names_by_index":["host","region","usage"]}`,
		strings.Join(filters, ","),
	))
}

func eqFilter(columnIndex int, value string) string {
	return fmt.Sprintf(`{
		"expression_class": "BOUND_COMPARISON",
		"type": "COMPARE_EQUAL",
		"left": %s,
		"right": %s
	}`, colRefJSON(columnIndex), strConstJSON(value))
}

func notEqFilter(columnIndex int, value string) string {
	return fmt.Sprintf(`{
		"expression_class": "BOUND_COMPARISON",
		"type": "COMPARE_NOTEQUAL",
		"left": %s,
		"right": %s
	}`, colRefJSON(columnIndex), strConstJSON(value))
}

func inFilter(columnIndex int, values ...string) string {
	members := make([]string, len(values))
	for i, v := range values {
		members[i] = strConstJSON(v)
	}
	return fmt.Sprintf(`{
		"expression_class": "BOUND_COMPARISON",
		"type": "COMPARE_IN",
		"left": %s,
		"right": {
			"expression_class": "BOUND_FUNCTION",
			"type": "BOUND_FUNCTION",
			"name": "list_value",
			"children": [%s]
		}
	}`, colRefJSON(columnIndex), strings.Join(members, ","))
}

func colRefJSON(columnIndex int) string {
	return fmt.Sprintf(`{
		"expression_class": "BOUND_COLUMN_REF",
		"type": "BOUND_COLUMN_REF",
		"return_type": {"id": "VARCHAR"},
		"binding": {"table_index": 0, "column_index": %d},
		"depth": 0
	}`, columnIndex)
}

func strConstJSON(value string) string {
	return fmt.Sprintf(`{
		"expression_class": "BOUND_CONSTANT",
		"type": "VALUE_CONSTANT",
		"value": {"type": {"id": "VARCHAR"}, "is_null": false, "value": %q}
	}`, value)
}

func scanCPU(t *testing.T, opts *ScanOptions) ExecNode {
	t.Helper()
	_, fn := newTestFunction(t)
	table, err := fn.Call([]any{"cpu"})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	node, err := table.Scan(context.Background(), opts)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	return node
}

func TestScanDisplay(t *testing.T) {
	cases := []struct {
		name string
		opts *ScanOptions
		want string
	}{
		{
			name: "Bare",
			opts: nil,
			want: "DistinctCacheExec: inner=MemorySourceExec: batches=1, rows=3",
		},
		{
			name: "ProjectionAndLimit",
			opts: &ScanOptions{Columns: []string{"region"}, Limit: 2},
			want: "DistinctCacheExec: projection=[region] limit=2 inner=MemorySourceExec: batches=1, rows=2",
		},
		{
			name: "ProjectionKeepsRequestedOrder",
			opts: &ScanOptions{Columns: []string{"region", "host"}},
			want: "DistinctCacheExec: projection=[region, host] inner=MemorySourceExec: batches=1, rows=3",
		},
		{
			name: "InPredicate",
			opts: &ScanOptions{Filter: filterJSON(inFilter(0, "a", "b"))},
			want: "DistinctCacheExec: predicates=[[host@0 IN (a,b)]] inner=MemorySourceExec: batches=1, rows=2",
		},
		{
			name: "PredicatesKeepFilterOrder",
			opts: &ScanOptions{Filter: filterJSON(eqFilter(1, "us-east"), notEqFilter(0, "c"))},
			want: "DistinctCacheExec: predicates=[[region@1 IN (us-east)], [host@0 NOT IN (c)]] inner=MemorySourceExec: batches=1, rows=2",
		},
		{
			name: "Everything",
			opts: &ScanOptions{
				Columns: []string{"host"},
				Filter:  filterJSON(eqFilter(1, "us-east")),
				Limit:   1,
			},
			want: "DistinctCacheExec: projection=[host] limit=1 predicates=[[region@1 IN (us-east)]] inner=MemorySourceExec: batches=1, rows=1",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			node := scanCPU(t, tc.opts)
			if got := node.String(); got != tc.want {
				t.Errorf("String() =\n  %s\nwant\n  %s", got, tc.want)
			}
		})
	}
}

func TestScanProducesFilteredRows(t *testing.T) {
	node := scanCPU(t, &ScanOptions{
		Columns: []string{"host"},
		Filter:  filterJSON(eqFilter(1, "us-east")),
	})

	reader, err := node.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	defer reader.Release()

	var hosts []string
	for reader.Next() {
		rec := reader.Record()
		col := rec.Column(0).(*array.String)
		for i := 0; i < col.Len(); i++ {
			hosts = append(hosts, col.Value(i))
		}
	}
	if err := reader.Err(); err != nil {
		t.Fatalf("reader error: %v", err)
	}

	want := []string{"a", "b"}
	if len(hosts) != len(want) {
		t.Fatalf("hosts = %v, want %v", hosts, want)
	}
	for i := range want {
		if hosts[i] != want[i] {
			t.Errorf("hosts[%d] = %q, want %q", i, hosts[i], want[i])
		}
	}
}

func TestScanRepeatable(t *testing.T) {
	_, fn := newTestFunction(t)
	table, err := fn.Call([]any{"cpu"})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}

	opts := &ScanOptions{Filter: filterJSON(eqFilter(1, "us-east"))}
	readScan := func() []string {
		node, err := table.Scan(context.Background(), opts)
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		reader, err := node.Execute(context.Background())
		if err != nil {
			t.Fatalf("execute failed: %v", err)
		}
		defer reader.Release()

		var hosts []string
		for reader.Next() {
			col := reader.Record().Column(0).(*array.String)
			for i := 0; i < col.Len(); i++ {
				hosts = append(hosts, col.Value(i))
			}
		}
		return hosts
	}

	first := readScan()
	second := readScan()
	if len(first) != len(second) {
		t.Fatalf("runs differ in size: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("runs differ at %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestScanIsLeafNode(t *testing.T) {
	node := scanCPU(t, nil)
	if node.Name() != "DistinctCacheExec" {
		t.Errorf("Name() = %q, want DistinctCacheExec", node.Name())
	}
	if children := node.Children(); len(children) != 0 {
		t.Errorf("node should be a leaf, got %d children", len(children))
	}
}

func TestExecuteTwiceFails(t *testing.T) {
	node := scanCPU(t, nil)

	reader, err := node.Execute(context.Background())
	if err != nil {
		t.Fatalf("first execute failed: %v", err)
	}
	reader.Release()

	if _, err := node.Execute(context.Background()); err == nil {
		t.Errorf("second execute should fail")
	}
}

func TestScanUnknownProjectionColumn(t *testing.T) {
	_, fn := newTestFunction(t)
	table, err := fn.Call([]any{"cpu"})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}

	_, err = table.Scan(context.Background(), &ScanOptions{Columns: []string{"nope"}})
	if !IsPlanError(err) {
		t.Errorf("unknown projection column should be a planning error, got %v", err)
	}
}

func TestScanBadFilterJSON(t *testing.T) {
	_, fn := newTestFunction(t)
	table, err := fn.Call([]any{"cpu"})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}

	_, err = table.Scan(context.Background(), &ScanOptions{Filter: []byte("{not json")})
	if !IsPlanError(err) {
		t.Errorf("malformed filter JSON should be a planning error, got %v", err)
	}
}

func TestScanAfterDropYieldsEmpty(t *testing.T) {
	env, fn := newTestFunction(t)
	table, err := fn.Call([]any{"cpu"})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}

	// Removal between resolution and scan is an expected race, not an error.
	env.reg.DropCache(env.db, env.cpuID, env.cpuCache.ID)

	node, err := table.Scan(context.Background(), nil)
	if err != nil {
		t.Fatalf("scan after drop failed: %v", err)
	}

	reader, err := node.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	defer reader.Release()

	for reader.Next() {
		if reader.Record().NumRows() != 0 {
			t.Errorf("scan after drop should produce no rows")
		}
	}
	if err := reader.Err(); err != nil {
		t.Fatalf("reader error: %v", err)
	}
}
