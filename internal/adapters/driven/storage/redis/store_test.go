package redis

import (
	"context"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore connects to AUTOREVIEW_TEST_REDIS under a per-test prefix.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("AUTOREVIEW_TEST_REDIS")
	if addr == "" {
		t.Skip("AUTOREVIEW_TEST_REDIS not set")
	}

	ctx := context.Background()
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	require.NoError(t, client.Ping(ctx).Err())

	store := NewStoreWithClient(client, "autoreview-test:"+t.Name()+":")
	require.NoError(t, store.Purge(ctx, ""))
	t.Cleanup(func() {
		_ = store.Purge(context.Background(), "")
		_ = store.Close()
	})
	return store
}

func TestEncodeDecode(t *testing.T) {
	in := []float32{0.5, -2, 3.75}
	assert.Equal(t, in, decode(encode(in)))
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
}

func TestPattern(t *testing.T) {
	s := NewStoreWithClient(goredis.NewClient(&goredis.Options{Addr: "localhost:0"}), "")
	defer s.Close()

	assert.Equal(t, "autoreview:emb:*", s.pattern(""))
	assert.Equal(t, "autoreview:emb:m@v1:*", s.pattern("m@v1"))
	assert.Equal(t, "autoreview:emb:m@v1:h", s.key("m@v1", "h"))
}

func TestNewStore_RequiresAddr(t *testing.T) {
	_, err := NewStore(context.Background(), Config{})
	assert.Error(t, err)
}

func TestStore_PutGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "ns", map[string][]float32{"a": {1, 2}}))
	require.NoError(t, s.Put(ctx, "ns", map[string][]float32{"a": {9, 9}}))

	got, err := s.Get(ctx, "ns", []string{"a", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]float32{"a": {1, 2}}, got)
}

func TestStore_CountPurge(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "x", map[string][]float32{"a": {1}, "b": {2}}))
	require.NoError(t, s.Put(ctx, "y", map[string][]float32{"a": {1}}))

	n, err := s.Count(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.Purge(ctx, "x"))
	n, err = s.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
