package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/autoreview/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/autoreview/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/autoreview/internal/core/domain"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cache, err := Open(ctx, domain.CacheSettings{Backend: domain.CacheBackendMemory})
		require.NoError(t, err)
		defer cache.Close()
		assert.IsType(t, &memory.Cache{}, cache)
	})

	t.Run("sqlite without l1", func(t *testing.T) {
		cache, err := Open(ctx, domain.CacheSettings{Backend: domain.CacheBackendSQLite, DataDir: t.TempDir()})
		require.NoError(t, err)
		defer cache.Close()
		assert.IsType(t, &sqlite.Store{}, cache)
	})

	t.Run("sqlite with l1", func(t *testing.T) {
		settings := domain.DefaultAppSettings().Cache
		settings.DataDir = t.TempDir()

		cache, err := Open(ctx, settings)
		require.NoError(t, err)
		defer cache.Close()
		assert.IsType(t, &memory.Layered{}, cache)

		require.NoError(t, cache.Put(ctx, "ns", map[string][]float32{"h": {1, 2}}))
		got, err := cache.Get(ctx, "ns", []string{"h"})
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2}, got["h"])
	})

	t.Run("empty backend defaults to sqlite", func(t *testing.T) {
		cache, err := Open(ctx, domain.CacheSettings{DataDir: t.TempDir()})
		require.NoError(t, err)
		defer cache.Close()
		assert.IsType(t, &sqlite.Store{}, cache)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(ctx, domain.CacheSettings{Backend: "postgres"})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		_, err := Open(ctx, domain.CacheSettings{Backend: domain.CacheBackendRedis, RedisAddr: "127.0.0.1:1"})
		require.Error(t, err)
	})
}
