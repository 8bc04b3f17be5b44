package memory

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.EmbeddingCache = (*Cache)(nil)

// keySep separates namespace and hash in cache keys.
const keySep = "\x00"

// Cache is an in-memory EmbeddingCache. Entries never expire unless a TTL
// is given.
type Cache struct {
	items *gocache.Cache
	ttl   time.Duration
}

// NewCache creates an in-memory cache whose entries never expire.
func NewCache() *Cache {
	return NewCacheWithTTL(gocache.NoExpiration)
}

// NewCacheWithTTL creates an in-memory cache whose entries expire after ttl.
func NewCacheWithTTL(ttl time.Duration) *Cache {
	cleanup := 2 * ttl
	if ttl <= 0 {
		ttl = gocache.NoExpiration
		cleanup = 0
	}
	return &Cache{
		items: gocache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

func key(namespace, hash string) string {
	return namespace + keySep + hash
}

// Get returns copies of the cached vectors. Misses are absent.
func (c *Cache) Get(ctx context.Context, namespace string, hashes []string) (map[string][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string][]float32, len(hashes))
	for _, h := range hashes {
		if v, ok := c.items.Get(key(namespace, h)); ok {
			out[h] = clone(v.([]float32))
		}
	}
	return out, nil
}

// Put stores vectors that are not already present. Add fails on an existing
// key, which keeps the first writer.
func (c *Cache) Put(ctx context.Context, namespace string, vectors map[string][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for h, vec := range vectors {
		_ = c.items.Add(key(namespace, h), clone(vec), c.ttl)
	}
	return nil
}

// Count returns the number of live vectors in namespace, or all when empty.
func (c *Cache) Count(_ context.Context, namespace string) (int, error) {
	if namespace == "" {
		return c.items.ItemCount(), nil
	}
	prefix := namespace + keySep
	n := 0
	for k := range c.items.Items() {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n, nil
}

// Purge removes namespace, or everything when empty.
func (c *Cache) Purge(_ context.Context, namespace string) error {
	if namespace == "" {
		c.items.Flush()
		return nil
	}
	prefix := namespace + keySep
	for k := range c.items.Items() {
		if strings.HasPrefix(k, prefix) {
			c.items.Delete(k)
		}
	}
	return nil
}

// Close releases resources.
func (c *Cache) Close() error {
	return nil
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
