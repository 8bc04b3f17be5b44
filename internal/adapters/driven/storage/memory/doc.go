// Package memory provides in-memory adapters: embedding caches backed by
// go-cache and a ConfigStore for tests.
//
// Cache is a complete EmbeddingCache for tests and ephemeral runs.
// Layered puts a short-lived Cache in front of a persistent backend so
// repeated lookups in one process skip the database.
package memory
