package driven

import "context"

// SharedOwner owns the main document index, which every agent may read.
const SharedOwner = ""

// VectorEntry is one vector to index.
type VectorEntry struct {
	ID      string
	Ordinal int
	Vector  []float32
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched entry.
	ID string

	// Ordinal is the matched entry's position, used to break ties.
	Ordinal int

	// Similarity is the cosine similarity score (-1 to 1).
	Similarity float64
}

// VectorIndex provides nearest-neighbour search over a fixed corpus.
// Indexes are read-only after Build and safe for concurrent queries.
type VectorIndex interface {
	// Owner returns the agent that owns the index, or SharedOwner.
	Owner() string

	// Query returns up to k hits ordered by descending similarity, ties by
	// ascending ordinal. A requester other than the owner is rejected with
	// domain.ErrIsolation unless the index is shared.
	Query(ctx context.Context, requester string, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int
}

// VectorIndexFactory builds indexes.
type VectorIndexFactory interface {
	// Build creates an index owned by owner over entries.
	Build(ctx context.Context, owner string, entries []VectorEntry) (VectorIndex, error)
}
