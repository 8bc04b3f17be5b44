// Package storage selects and opens the embedding cache backend.
package storage

import (
	"context"
	"fmt"

	"github.com/custodia-labs/autoreview/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/autoreview/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/autoreview/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/autoreview/internal/core/domain"
	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
	"github.com/custodia-labs/autoreview/internal/logger"
)

// Open returns the embedding cache named by settings. Persistent backends
// are fronted by an in-process layer when L1TTL is positive.
func Open(ctx context.Context, settings domain.CacheSettings) (driven.EmbeddingCache, error) {
	var backend driven.EmbeddingCache

	switch settings.Backend {
	case domain.CacheBackendMemory:
		logger.Debug("Embedding cache: memory")
		return memory.NewCache(), nil
	case domain.CacheBackendSQLite, "":
		store, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			return nil, err
		}
		logger.Debug("Embedding cache: sqlite (%s)", store.Path())
		backend = store
	case domain.CacheBackendRedis:
		store, err := redis.NewStore(ctx, redis.Config{
			Addr:     settings.RedisAddr,
			Password: settings.RedisPassword,
			DB:       settings.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("Embedding cache: redis (%s db %d)", settings.RedisAddr, settings.RedisDB)
		backend = store
	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", domain.ErrInvalidInput, settings.Backend)
	}

	if settings.L1TTL > 0 {
		return memory.NewLayered(backend, settings.L1TTL), nil
	}
	return backend, nil
}
