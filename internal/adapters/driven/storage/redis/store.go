// Package redis provides a shared EmbeddingCache backed by Redis.
//
// Vectors are stored as little-endian float32 strings under
// "<prefix><namespace>:<hash>". Writes use SETNX so the first writer wins
// across every process sharing the server.
package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/autoreview/internal/core/ports/driven"
)

// DefaultPrefix namespaces every key this cache writes.
const DefaultPrefix = "autoreview:emb:"

// scanCount is the SCAN page size hint.
const scanCount = 500

// Ensure Store implements the interface.
var _ driven.EmbeddingCache = (*Store)(nil)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Prefix overrides DefaultPrefix.
	Prefix string
}

// Store is the Redis-backed embedding cache.
type Store struct {
	client *goredis.Client
	prefix string
}

// NewStore connects to Redis and verifies the connection with PING.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: address is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return NewStoreWithClient(client, cfg.Prefix), nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(namespace, hash string) string {
	return s.prefix + namespace + ":" + hash
}

// pattern matches every key in namespace, or every key when empty.
func (s *Store) pattern(namespace string) string {
	if namespace == "" {
		return escapeGlob(s.prefix) + "*"
	}
	return escapeGlob(s.prefix+namespace+":") + "*"
}

// Get returns cached vectors with a single MGET. Misses are absent.
func (s *Store) Get(ctx context.Context, namespace string, hashes []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	keys := make([]string, len(hashes))
	for i, h := range hashes {
		keys[i] = s.key(namespace, h)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: mget: %w", err)
	}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		out[hashes[i]] = decode([]byte(str))
	}
	return out, nil
}

// Put stores vectors with SETNX in one pipeline.
func (s *Store) Put(ctx context.Context, namespace string, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for h, vec := range vectors {
		pipe.SetNX(ctx, s.key(namespace, h), encode(vec), 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: setnx: %w", err)
	}
	return nil
}

// Count scans matching keys.
func (s *Store) Count(ctx context.Context, namespace string) (int, error) {
	n := 0
	err := s.scan(ctx, namespace, func(keys []string) error {
		n += len(keys)
		return nil
	})
	return n, err
}

// Purge deletes matching keys page by page.
func (s *Store) Purge(ctx context.Context, namespace string) error {
	return s.scan(ctx, namespace, func(keys []string) error {
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis: del: %w", err)
		}
		return nil
	})
}

func (s *Store) scan(ctx context.Context, namespace string, fn func([]string) error) error {
	var cursor uint64
	match := s.pattern(namespace)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, scanCount).Result()
		if err != nil {
			return fmt.Errorf("redis: scan: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func encode(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decode(data []byte) []float32 {
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
