// Package repository defines the data access interfaces for normcalc.
//
// The engine only reads: CatalogReader serves materials and norms, and
// TopologySource serves the entities of one calculation. Repository adds the
// bulk imports used to populate a store.
//
// # Implementations
//
// The sqlite subpackage persists everything in SQLite (WAL mode, foreign
// keys with cascade deletes, transactional imports). The memory subpackage
// serves a catalog and projects held in memory, for offline runs and tests.
package repository
