package distinctcache

import (
	"errors"
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/MokerWill/distinctcache/catalog"
	"github.com/MokerWill/distinctcache/internal/serialize"
)

func TestNewRegistryRequiresCatalog(t *testing.T) {
	_, err := NewRegistry(RegistryConfig{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestCreateAndDropCache(t *testing.T) {
	env := newTestEnv(t, memory.DefaultAllocator)

	// The fixture already registered cpu_tags; a duplicate must fail.
	store, err := NewStaticStore(memory.DefaultAllocator, []StoreColumn{{ID: 0, Name: "host"}}, nil)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	if err := env.reg.CreateCache(env.db, env.cpuID, env.cpuCache.ID, store); !errors.Is(err, ErrCacheExists) {
		t.Errorf("expected ErrCacheExists, got %v", err)
	}

	if _, ok := env.reg.CacheSchema(env.db, env.cpuID, env.cpuCache.ID); !ok {
		t.Fatalf("cache schema should be available")
	}

	env.reg.DropCache(env.db, env.cpuID, env.cpuCache.ID)
	if _, ok := env.reg.CacheSchema(env.db, env.cpuID, env.cpuCache.ID); ok {
		t.Errorf("cache schema should be gone after drop")
	}

	// Dropping again is a no-op.
	env.reg.DropCache(env.db, env.cpuID, env.cpuCache.ID)
}

func TestCreateCacheRejectsNilStore(t *testing.T) {
	env := newTestEnv(t, memory.DefaultAllocator)
	if err := env.reg.CreateCache(env.db, env.memID, 0, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestResolveCache(t *testing.T) {
	env := newTestEnv(t, memory.DefaultAllocator)
	dbSchema, _ := env.cat.Database(env.db)

	t.Run("Named", func(t *testing.T) {
		def, _ := dbSchema.TableDefinition("cpu")
		info, err := env.reg.ResolveCache(def, "cpu_tags")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.Name != "cpu_tags" {
			t.Errorf("resolved %q, want cpu_tags", info.Name)
		}
	})

	t.Run("NamedMissing", func(t *testing.T) {
		def, _ := dbSchema.TableDefinition("cpu")
		_, err := env.reg.ResolveCache(def, "nope")
		if !errors.Is(err, ErrCacheNotFound) {
			t.Errorf("expected ErrCacheNotFound, got %v", err)
		}
	})

	t.Run("SoleCacheAutoSelect", func(t *testing.T) {
		def, _ := dbSchema.TableDefinition("cpu")
		info, err := env.reg.ResolveCache(def, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.Name != "cpu_tags" {
			t.Errorf("resolved %q, want cpu_tags", info.Name)
		}
	})

	t.Run("NoCaches", func(t *testing.T) {
		def, _ := dbSchema.TableDefinition("bare")
		_, err := env.reg.ResolveCache(def, "")
		if !errors.Is(err, ErrCacheNotFound) {
			t.Errorf("expected ErrCacheNotFound, got %v", err)
		}
	})

	t.Run("Ambiguous", func(t *testing.T) {
		def, _ := dbSchema.TableDefinition("mem")
		_, err := env.reg.ResolveCache(def, "")
		if !errors.Is(err, ErrCacheAmbiguous) {
			t.Errorf("expected ErrCacheAmbiguous, got %v", err)
		}
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	allocator := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer allocator.AssertSize(t, 0)

	env := newTestEnv(t, allocator)

	data, err := env.reg.Snapshot(env.db, env.cpuID, env.cpuCache.ID)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	rec, err := serialize.DecodeRecord(data, allocator)
	if err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	defer rec.Release()

	if rec.NumRows() != 3 {
		t.Errorf("snapshot has %d rows, want 3", rec.NumRows())
	}
	if rec.NumCols() != 2 {
		t.Errorf("snapshot has %d columns, want 2", rec.NumCols())
	}
	if name := rec.Schema().Field(0).Name; name != "host" {
		t.Errorf("first column is %q, want host", name)
	}
}

func TestSnapshotMissingCache(t *testing.T) {
	env := newTestEnv(t, memory.DefaultAllocator)
	_, err := env.reg.Snapshot(env.db, env.cpuID, catalog.CacheID(99))
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	env := newTestEnv(t, memory.DefaultAllocator)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				env.reg.CacheSchema(env.db, env.cpuID, env.cpuCache.ID)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			env.reg.DropCache(env.db, env.memID, catalog.CacheID(0))
		}
	}()
	wg.Wait()
}
