package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store, tempDir
}

func TestNewStore_Success(t *testing.T) {
	store, dir := setupTestStore(t)

	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewStore_DefaultDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewStore("")
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(home, ".autoreview", "data", DatabaseFile), store.Path())
}

func TestNewStore_MigrationsApplyOnce(t *testing.T) {
	store, dir := setupTestStore(t)
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	db, err := sql.Open("sqlite", reopened.Path())
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestStore_PutGet(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ns", map[string][]float32{
		"h1": {0.1, 0.2, 0.3},
		"h2": {1, -1},
	}))

	got, err := store.Get(ctx, "ns", []string{"h1", "h2", "missing"})

	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got["h1"])
	assert.Equal(t, []float32{1, -1}, got["h2"])
	_, ok := got["missing"]
	assert.False(t, ok)
}

func TestStore_FirstWriterWins(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ns", map[string][]float32{"h": {1}}))
	require.NoError(t, store.Put(ctx, "ns", map[string][]float32{"h": {2}}))

	got, err := store.Get(ctx, "ns", []string{"h"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, got["h"])
}

func TestStore_NamespaceIsolation(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "model-a@v1", map[string][]float32{"h": {1}}))
	require.NoError(t, store.Put(ctx, "model-a@v2", map[string][]float32{"h": {2}}))

	got, err := store.Get(ctx, "model-a@v2", []string{"h"})
	require.NoError(t, err)
	assert.Equal(t, []float32{2}, got["h"])

	got, err = store.Get(ctx, "model-b@v1", []string{"h"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	store, dir := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "ns", map[string][]float32{"h": {0.5, 0.25}}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "ns", []string{"h"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, got["h"])
}

func TestStore_CountAndPurge(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "a", map[string][]float32{"1": {1}, "2": {2}}))
	require.NoError(t, store.Put(ctx, "b", map[string][]float32{"1": {1}}))

	n, err := store.Count(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = store.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, store.Purge(ctx, "a"))
	n, err = store.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Purge(ctx, ""))
	n, err = store.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_GetLargeBatch(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	vectors := make(map[string][]float32)
	hashes := make([]string, 0, 1200)
	for i := 0; i < 1200; i++ {
		h := fmt.Sprintf("h%04d", i)
		vectors[h] = []float32{float32(i)}
		hashes = append(hashes, h)
	}
	require.NoError(t, store.Put(ctx, "ns", vectors))

	got, err := store.Get(ctx, "ns", hashes)
	require.NoError(t, err)
	assert.Len(t, got, 1200)
	assert.Equal(t, []float32{1199}, got["h1199"])
}

func TestStore_ConcurrentPut(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Put(ctx, "ns", map[string][]float32{"shared": {float32(i)}}))
		}(i)
	}
	wg.Wait()

	n, err := store.Count(ctx, "ns")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFloat32Conversion(t *testing.T) {
	in := []float32{0, -1.5, 3.25}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Empty(t, bytesToFloat32Slice(nil))
}
