// Package memory provides an exact in-memory cosine VectorIndex.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
)

// Ensure types implement the interfaces.
var (
	_ driven.VectorIndex        = (*Index)(nil)
	_ driven.VectorIndexFactory = (*Factory)(nil)
)

// Factory builds exact indexes.
type Factory struct{}

// NewFactory creates a new index factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Build copies entries into a new index owned by owner.
// All vectors must share one dimension.
func (f *Factory) Build(ctx context.Context, owner string, entries []driven.VectorEntry) (driven.VectorIndex, error) {
	idx := &Index{
		owner:   owner,
		entries: make([]entry, 0, len(entries)),
	}
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i == 0 {
			idx.dims = len(e.Vector)
		} else if len(e.Vector) != idx.dims {
			return nil, fmt.Errorf("%w: entry %s has %d dimensions, index has %d",
				domain.ErrInvalidInput, e.ID, len(e.Vector), idx.dims)
		}
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		idx.entries = append(idx.entries, entry{
			id:      e.ID,
			ordinal: e.Ordinal,
			vector:  vec,
			norm:    norm(vec),
		})
	}
	return idx, nil
}

type entry struct {
	id      string
	ordinal int
	vector  []float32
	norm    float64
}

// Index is an exact cosine index. It is immutable after Build, so
// concurrent queries need no locking.
type Index struct {
	owner   string
	dims    int
	entries []entry
}

// Owner returns the owning agent, or driven.SharedOwner.
func (idx *Index) Owner() string {
	return idx.owner
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Query scores every entry and returns the best k.
func (idx *Index) Query(ctx context.Context, requester string, query []float32, k int) ([]driven.VectorHit, error) {
	if idx.owner != driven.SharedOwner && requester != idx.owner {
		return nil, fmt.Errorf("%w: index of %q queried by %q", domain.ErrIsolation, idx.owner, requester)
	}
	if k <= 0 || len(idx.entries) == 0 {
		return nil, nil
	}
	if len(query) != idx.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrInvalidInput, len(query), idx.dims)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qnorm := norm(query)
	hits := make([]driven.VectorHit, len(idx.entries))
	for i, e := range idx.entries {
		hits[i] = driven.VectorHit{
			ID:         e.id,
			Ordinal:    e.ordinal,
			Similarity: cosine(query, qnorm, e.vector, e.norm),
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		return Less(hits[i], hits[j])
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Less orders hits by descending similarity, then ascending ordinal, then id.
func Less(a, b driven.VectorHit) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	if a.Ordinal != b.Ordinal {
		return a.Ordinal < b.Ordinal
	}
	return a.ID < b.ID
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector is zero.
func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}
