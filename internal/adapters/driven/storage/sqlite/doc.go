// Package sqlite provides the persistent SQLite embedding cache.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Vectors are stored as little-endian float32 blobs keyed by
// (namespace, content_hash).
//
// # Data Location
//
// By default, the database is stored at ~/.autoreview/data/embeddings.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. Writes are INSERT OR IGNORE, so the first writer of a
// hash wins.
package sqlite
