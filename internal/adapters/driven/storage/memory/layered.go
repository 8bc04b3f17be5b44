package memory

import (
	"context"
	"time"

	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
)

// Ensure Layered implements the interface.
var _ driven.EmbeddingCache = (*Layered)(nil)

// Layered serves reads from an in-memory L1 before falling back to a
// persistent backend. Writes always go to the backend; the L1 is filled
// from backend reads only, so it never holds a vector the backend rejected.
type Layered struct {
	l1      *Cache
	backend driven.EmbeddingCache
}

// NewLayered fronts backend with an L1 whose entries live for ttl.
func NewLayered(backend driven.EmbeddingCache, ttl time.Duration) *Layered {
	return &Layered{
		l1:      NewCacheWithTTL(ttl),
		backend: backend,
	}
}

// Get checks the L1 first and fetches the rest from the backend.
func (l *Layered) Get(ctx context.Context, namespace string, hashes []string) (map[string][]float32, error) {
	out, err := l.l1.Get(ctx, namespace, hashes)
	if err != nil {
		return nil, err
	}

	var misses []string
	for _, h := range hashes {
		if _, ok := out[h]; !ok {
			misses = append(misses, h)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	found, err := l.backend.Get(ctx, namespace, misses)
	if err != nil {
		return nil, err
	}
	if err := l.l1.Put(ctx, namespace, found); err != nil {
		return nil, err
	}
	for h, v := range found {
		out[h] = v
	}
	return out, nil
}

// Put writes through to the backend.
func (l *Layered) Put(ctx context.Context, namespace string, vectors map[string][]float32) error {
	return l.backend.Put(ctx, namespace, vectors)
}

// Count reports the backend count.
func (l *Layered) Count(ctx context.Context, namespace string) (int, error) {
	return l.backend.Count(ctx, namespace)
}

// Purge clears both layers.
func (l *Layered) Purge(ctx context.Context, namespace string) error {
	if err := l.l1.Purge(ctx, namespace); err != nil {
		return err
	}
	return l.backend.Purge(ctx, namespace)
}

// Close closes the backend.
func (l *Layered) Close() error {
	return l.backend.Close()
}
