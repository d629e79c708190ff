package distinctcache

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/MokerWill/distinctcache/catalog"
	"github.com/MokerWill/distinctcache/filter"
)

// testEnv is the common scenario for the package tests: a database with a
// cpu table carrying one cache over its tag columns, a mem table carrying
// two caches, and a bare table carrying none.
type testEnv struct {
	cat      catalog.Catalog
	reg      *Registry
	db       catalog.DatabaseID
	cpuID    catalog.TableID
	cpuCache catalog.CacheInfo
	memID    catalog.TableID
}

func newTestEnv(t *testing.T, allocator memory.Allocator) *testEnv {
	t.Helper()

	b := catalog.NewBuilder()
	db := b.Database("metrics")
	cpu := db.Table("cpu", "host", "region", "usage")
	cpuCache := cpu.Cache("cpu_tags", "host", "region")
	mem := db.Table("mem", "host", "zone")
	mem.Cache("mem_hosts", "host")
	mem.Cache("mem_zones", "zone")
	db.Table("bare", "host")

	cat, err := b.Build()
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}

	reg, err := NewRegistry(RegistryConfig{Catalog: cat, Allocator: allocator})
	if err != nil {
		t.Fatalf("creating registry: %v", err)
	}

	store, err := NewStaticStore(allocator, []StoreColumn{
		{ID: 0, Name: "host"},
		{ID: 1, Name: "region"},
	}, [][]string{
		{"a", "us-east"},
		{"b", "us-east"},
		{"c", "us-west"},
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	if err := reg.CreateCache(db.ID(), cpu.ID(), cpuCache.ID, store); err != nil {
		t.Fatalf("registering cache: %v", err)
	}

	return &testEnv{
		cat:      cat,
		reg:      reg,
		db:       db.ID(),
		cpuID:    cpu.ID(),
		cpuCache: cpuCache,
		memID:    mem.ID(),
	}
}

func (e *testEnv) cpuTable(t *testing.T) *catalog.TableDefinition {
	t.Helper()
	dbSchema, ok := e.cat.Database(e.db)
	if !ok {
		t.Fatalf("database not found")
	}
	def, ok := dbSchema.TableDefinition("cpu")
	if !ok {
		t.Fatalf("cpu table not found")
	}
	return def
}

// Expression constructors for driving constraint extraction without going
// through serialized filter JSON.

func colRef(index int) *filter.ColumnRefExpression {
	return &filter.ColumnRefExpression{
		BaseExpression: filter.BaseExpression{
			ExprClass: filter.ClassBoundColumnRef,
			ExprType:  filter.TypeBoundColumnRef,
		},
		Binding:    filter.ColumnBinding{ColumnIndex: index},
		ReturnType: filter.LogicalType{ID: filter.TypeIDVarchar},
	}
}

func strConst(s string) *filter.ConstantExpression {
	return &filter.ConstantExpression{
		BaseExpression: filter.BaseExpression{
			ExprClass: filter.ClassBoundConstant,
			ExprType:  filter.TypeValueConstant,
		},
		Value: filter.Value{Type: filter.LogicalType{ID: filter.TypeIDVarchar}, Data: s},
	}
}

func intConst(n int64) *filter.ConstantExpression {
	return &filter.ConstantExpression{
		BaseExpression: filter.BaseExpression{
			ExprClass: filter.ClassBoundConstant,
			ExprType:  filter.TypeValueConstant,
		},
		Value: filter.Value{Type: filter.LogicalType{ID: filter.TypeIDBigInt}, Data: n},
	}
}

func compare(typ filter.ExpressionType, left, right filter.Expression) *filter.ComparisonExpression {
	return &filter.ComparisonExpression{
		BaseExpression: filter.BaseExpression{
			ExprClass: filter.ClassBoundComparison,
			ExprType:  typ,
		},
		Left:  left,
		Right: right,
	}
}

func inList(typ filter.ExpressionType, probe filter.Expression, members ...filter.Expression) *filter.ComparisonExpression {
	return compare(typ, probe, &filter.FunctionExpression{
		BaseExpression: filter.BaseExpression{
			ExprClass: filter.ClassBoundFunction,
			ExprType:  filter.TypeBoundFunction,
		},
		Name:     "list_value",
		Children: members,
	})
}

func pushdown(bindings []string, filters ...filter.Expression) *filter.FilterPushdown {
	return &filter.FilterPushdown{Filters: filters, ColumnBindings: bindings}
}
