package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/logger"
)

// DefaultEmbedBatchSize is the number of texts sent per EmbedBatch call.
const DefaultEmbedBatchSize = 32

// Embedder resolves content hashes to vectors, consulting the cache first.
type Embedder struct {
	service   driven.EmbeddingService
	cache     driven.EmbeddingCache
	namespace string
	batchSize int

	group   singleflight.Group
	writeMu sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
}

// NewEmbedder creates an embedder. batchSize <= 0 uses DefaultEmbedBatchSize.
func NewEmbedder(service driven.EmbeddingService, cache driven.EmbeddingCache, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	return &Embedder{
		service:   service,
		cache:     cache,
		namespace: driven.EmbeddingNamespace(service),
		batchSize: batchSize,
	}
}

// Namespace returns the cache namespace vectors are stored under.
func (e *Embedder) Namespace() string {
	return e.namespace
}

// Stats returns cache hits and misses counted by content hash.
func (e *Embedder) Stats() (hits, misses int) {
	return int(e.hits.Load()), int(e.misses.Load())
}

// Embed returns one vector per distinct content hash in texts.
func (e *Embedder) Embed(ctx context.Context, texts map[string]string) (map[string][]float32, error) {
	if len(texts) == 0 {
		return map[string][]float32{}, nil
	}

	hashes := make([]string, 0, len(texts))
	for h := range texts {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	vectors, err := e.cache.Get(ctx, e.namespace, hashes)
	if err != nil {
		return nil, fmt.Errorf("%w: cache lookup: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if vectors == nil {
		vectors = make(map[string][]float32, len(hashes))
	}

	var missing []string
	for _, h := range hashes {
		if _, ok := vectors[h]; !ok {
			missing = append(missing, h)
		}
	}
	e.hits.Add(int64(len(hashes) - len(missing)))
	e.misses.Add(int64(len(missing)))
	logger.Debug("Embeddings: %d cached, %d to embed (%s)", len(hashes)-len(missing), len(missing), e.namespace)

	for start := 0; start < len(missing); start += e.batchSize {
		end := min(start+e.batchSize, len(missing))
		batch, err := e.embedBatch(ctx, missing[start:end], texts)
		if err != nil {
			return nil, err
		}
		for h, v := range batch {
			vectors[h] = v
		}
	}

	return vectors, nil
}

// embedBatch embeds one batch of hashes. Concurrent callers asking for the
// same batch share one provider call.
func (e *Embedder) embedBatch(ctx context.Context, hashes []string, texts map[string]string) (map[string][]float32, error) {
	key := strings.Join(hashes, ",")
	v, err, _ := e.group.Do(key, func() (any, error) {
		inputs := make([]string, len(hashes))
		for i, h := range hashes {
			inputs[i] = texts[h]
		}

		out, err := e.service.EmbedBatch(ctx, inputs)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		if len(out) != len(inputs) {
			return nil, fmt.Errorf("%w: provider returned %d vectors for %d texts",
				domain.ErrEmbeddingUnavailable, len(out), len(inputs))
		}

		batch := make(map[string][]float32, len(hashes))
		for i, h := range hashes {
			if len(out[i]) == 0 {
				return nil, fmt.Errorf("%w: empty vector for input %d", domain.ErrEmbeddingUnavailable, i)
			}
			batch[h] = out[i]
		}

		e.writeMu.Lock()
		defer e.writeMu.Unlock()
		if err := e.cache.Put(ctx, e.namespace, batch); err != nil {
			return nil, fmt.Errorf("%w: cache write: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return batch, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string][]float32), nil
}
