// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from EmbeddingCache which persists vectors and
// VectorIndex which searches them.
//
// Implementations may include:
//   - OpenAI-compatible servers (text-embedding-3-small, LM Studio)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Gemini (gemini-embedding-001)
//   - The local hashing embedder
type EmbeddingService interface {
	// EmbedBatch generates one embedding per text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Version identifies the provider and model revision. Vectors from
	// different versions are never mixed in the cache.
	Version() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingNamespace returns the cache namespace for an embedding service.
func EmbeddingNamespace(svc EmbeddingService) string {
	return svc.ModelName() + "@" + svc.Version()
}

// EmbeddingCache stores vectors by content hash within a namespace.
// Writes are first-writer-wins: a Put never replaces an existing vector.
type EmbeddingCache interface {
	// Get returns the cached vectors for the given hashes. Misses are absent.
	Get(ctx context.Context, namespace string, hashes []string) (map[string][]float32, error)

	// Put stores vectors that are not already present.
	Put(ctx context.Context, namespace string, vectors map[string][]float32) error

	// Count returns the number of vectors in namespace, or in all namespaces when empty.
	Count(ctx context.Context, namespace string) (int, error)

	// Purge removes namespace, or everything when empty.
	Purge(ctx context.Context, namespace string) error

	// Close releases resources.
	Close() error
}
