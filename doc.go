// Package distinctcache implements the query-side integration of a
// distinct-value cache: an in-memory store of the distinct combinations of a
// table's string columns, exposed to a query engine through the
// distinct_cache table function.
//
// The package connects four pieces:
//
//   - A Registry holding the live stores, keyed by database, table, and
//     cache id, resolved against a catalog.Catalog.
//   - A TableFunction resolving distinct_cache(<table>[, <cache>]) calls to
//     a scannable Table.
//   - Constraint extraction (ExtractConstraints) distilling pushed-down
//     filter expressions into per-column IN / NOT IN predicates via
//     literal-guarantee analysis in the filter subpackage.
//   - A DistinctCacheExec plan node wrapping the materialized batch, with a
//     deterministic plan rendering of the projection, limit, and predicates
//     that shaped it.
//
// All filter pushdown is inexact: predicates narrow what the cache
// materializes, and the engine re-evaluates every filter over the output, so
// a dropped or partially-understood filter can never change query results.
//
// Basic usage:
//
//	reg, err := distinctcache.NewRegistry(distinctcache.RegistryConfig{Catalog: cat})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := reg.CreateCache(dbID, tableID, cacheID, store); err != nil {
//		log.Fatal(err)
//	}
//
//	fn, _ := distinctcache.NewTableFunction(dbID, reg)
//	table, err := fn.Call([]any{"cpu", "cpu_tags"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	node, err := table.Scan(ctx, &distinctcache.ScanOptions{Columns: []string{"host"}})
//	if err != nil {
//		log.Fatal(err)
//	}
//	reader, err := node.Execute(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer reader.Release()
//	for reader.Next() {
//		process(reader.Record())
//	}
package distinctcache
