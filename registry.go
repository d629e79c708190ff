package distinctcache

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/MokerWill/distinctcache/catalog"
	"github.com/MokerWill/distinctcache/filter"
	"github.com/MokerWill/distinctcache/internal/recovery"
	"github.com/MokerWill/distinctcache/internal/serialize"
)

// RegistryConfig contains configuration for a cache Registry.
type RegistryConfig struct {
	// Catalog resolves database, table, and cache metadata.
	// REQUIRED: MUST NOT be nil.
	Catalog catalog.Catalog

	// Allocator for Arrow memory management.
	// OPTIONAL: Uses memory.DefaultAllocator if nil.
	Allocator memory.Allocator

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger
}

// Registry owns the mapping from cache identity (database, table, cache id)
// to its store, and is the single point of truth for whether a cache exists
// and what its schema is.
//
// The nested map is guarded by one reader/writer lock at the top level: every
// query-path operation takes the read side and runs concurrently with other
// queries; only cache registration and removal (the ingest-driven write path)
// take the write side, and hold it just long enough to swap a map entry.
type Registry struct {
	cat       catalog.Catalog
	allocator memory.Allocator
	log       *slog.Logger

	mu     sync.RWMutex
	caches map[catalog.DatabaseID]map[catalog.TableID]map[catalog.CacheID]Store
}

// NewRegistry creates a registry from the given configuration.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("%w: Catalog is required", ErrInvalidConfig)
	}
	allocator := cfg.Allocator
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cat:       cfg.Catalog,
		allocator: allocator,
		log:       logger,
		caches:    make(map[catalog.DatabaseID]map[catalog.TableID]map[catalog.CacheID]Store),
	}, nil
}

// Catalog returns the catalog the registry resolves metadata against.
func (r *Registry) Catalog() catalog.Catalog { return r.cat }

// CreateCache registers a store under the given cache identity. Called from
// the ingest path when a cache is built; fails if the identity is already
// taken.
func (r *Registry) CreateCache(db catalog.DatabaseID, table catalog.TableID, id catalog.CacheID, store Store) error {
	if store == nil {
		return fmt.Errorf("%w: store must not be nil", ErrInvalidConfig)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tables, ok := r.caches[db]
	if !ok {
		tables = make(map[catalog.TableID]map[catalog.CacheID]Store)
		r.caches[db] = tables
	}
	stores, ok := tables[table]
	if !ok {
		stores = make(map[catalog.CacheID]Store)
		tables[table] = stores
	}
	if _, exists := stores[id]; exists {
		return fmt.Errorf("%w: db=%d table=%d cache=%d", ErrCacheExists, db, table, id)
	}
	stores[id] = store

	r.log.Info("distinct cache registered", "db", db, "table", table, "cache", id)
	return nil
}

// DropCache removes a cache's store. Removing a cache that does not exist is
// a no-op: removal is a normal operational event and may race with other
// removals.
func (r *Registry) DropCache(db catalog.DatabaseID, table catalog.TableID, id catalog.CacheID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tables, ok := r.caches[db]
	if !ok {
		return
	}
	stores, ok := tables[table]
	if !ok {
		return
	}
	if _, exists := stores[id]; !exists {
		return
	}
	delete(stores, id)
	if len(stores) == 0 {
		delete(tables, table)
	}
	if len(tables) == 0 {
		delete(r.caches, db)
	}

	r.log.Info("distinct cache removed", "db", db, "table", table, "cache", id)
}

// ResolveCache selects a cache on the table. With a name, the cache must
// exist under that name. Without one, the table must have exactly one cache
// to auto-select; zero caches is a not-found condition and two or more
// require the caller to disambiguate.
func (r *Registry) ResolveCache(tableDef *catalog.TableDefinition, cacheName string) (catalog.CacheInfo, error) {
	if cacheName != "" {
		info, ok := tableDef.CacheByName(cacheName)
		if !ok {
			return catalog.CacheInfo{}, fmt.Errorf("%w: no cache named %q on table %q", ErrCacheNotFound, cacheName, tableDef.Name())
		}
		return info, nil
	}
	caches := tableDef.Caches()
	switch len(caches) {
	case 0:
		return catalog.CacheInfo{}, fmt.Errorf("%w: table %q has no distinct value caches", ErrCacheNotFound, tableDef.Name())
	case 1:
		return caches[0], nil
	default:
		return catalog.CacheInfo{}, fmt.Errorf("%w: table %q has %d caches, name one explicitly", ErrCacheAmbiguous, tableDef.Name(), len(caches))
	}
}

// CacheSchema returns the declared output schema of a cache's store.
// Returns (nil, false) if the cache is not registered.
func (r *Registry) CacheSchema(db catalog.DatabaseID, table catalog.TableID, id catalog.CacheID) (*arrow.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store, ok := r.lookupLocked(db, table, id)
	if !ok {
		return nil, false
	}
	return store.Schema(), true
}

// scan materializes a cache's contents under the read lock, extracting
// predicates from the filters first. A missing cache is a benign race with
// removal and yields a nil record, not an error; the caller produces an
// empty, correctly-shaped result.
func (r *Registry) scan(db catalog.DatabaseID, tableDef *catalog.TableDefinition, id catalog.CacheID, fp *filter.FilterPushdown, schema *arrow.Schema, projection []int, limit int64) (arrow.Record, *PredicateMap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store, ok := r.lookupLocked(db, tableDef.ID(), id)
	if !ok {
		r.log.Debug("distinct cache removed between resolution and scan",
			"db", db, "table", tableDef.ID(), "cache", id)
		return nil, nil, nil
	}

	predicates, err := ExtractConstraints(tableDef, store.Schema(), fp)
	if err != nil {
		return nil, nil, err
	}

	var rec arrow.Record
	err = recovery.RecoverToError(r.log, "Store.ToRecordBatch", func() error {
		var err error
		rec, err = store.ToRecordBatch(schema, predicates, projection, limit)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return rec, predicates, nil
}

// Snapshot materializes the full contents of a cache and returns them as
// zstd-compressed Arrow IPC bytes, for diagnostics and offline inspection.
// Unlike the query path, a missing cache here is reported as an error: the
// caller named the cache directly rather than racing a resolved handle.
func (r *Registry) Snapshot(db catalog.DatabaseID, table catalog.TableID, id catalog.CacheID) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store, ok := r.lookupLocked(db, table, id)
	if !ok {
		return nil, fmt.Errorf("%w: db=%d table=%d cache=%d", ErrCacheNotFound, db, table, id)
	}

	var rec arrow.Record
	err := recovery.RecoverToError(r.log, "Store.ToRecordBatch", func() error {
		var err error
		rec, err = store.ToRecordBatch(store.Schema(), nil, nil, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	return serialize.EncodeRecord(rec, r.allocator)
}

// lookupLocked resolves a store; the caller must hold the lock.
func (r *Registry) lookupLocked(db catalog.DatabaseID, table catalog.TableID, id catalog.CacheID) (Store, bool) {
	tables, ok := r.caches[db]
	if !ok {
		return nil, false
	}
	stores, ok := tables[table]
	if !ok {
		return nil, false
	}
	store, ok := stores[id]
	return store, ok
}
