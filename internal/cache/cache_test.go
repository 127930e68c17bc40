package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	out := map[string]Backend{"memory": NewMemoryCache(time.Minute, time.Minute)}
	if url := os.Getenv("REDIS_URL"); url != "" {
		rc, err := NewRedisCache(context.Background(), url, "feedmirror-test:")
		require.NoError(t, err)
		out["redis"] = rc
	}
	return out
}

func TestBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer b.Close()

			_, found, err := b.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, b.Set(ctx, "k1", []byte("v1"), time.Minute))
			require.NoError(t, b.Set(ctx, "k2", []byte("v2"), 0))

			v, found, err := b.Get(ctx, "k1")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, []byte("v1"), v)

			require.NoError(t, b.Delete(ctx, "k1"))
			_, found, _ = b.Get(ctx, "k1")
			assert.False(t, found)
			b.Delete(ctx, "k2")
		})
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCache(time.Minute, time.Minute)
	defer m.Close()

	m.Set(ctx, "short", []byte("x"), 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	_, found, _ := m.Get(ctx, "short")
	assert.False(t, found)
}

func TestTyped(t *testing.T) {
	type listing struct {
		IDs   []string
		Empty bool
	}
	ctx := context.Background()
	m := NewMemoryCache(time.Minute, time.Minute)
	c := NewTyped[listing](m, "tag:")

	_, ok := c.Get(ctx, "go/1")
	assert.False(t, ok)

	c.Set(ctx, "go/1", listing{IDs: []string{"1", "2"}}, time.Minute)
	got, ok := c.Get(ctx, "go/1")
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, got.IDs)

	m.Set(ctx, "tag:bad", []byte("{not json"), time.Minute)
	_, ok = c.Get(ctx, "bad")
	assert.False(t, ok, "undecodable entries are misses")
	_, found, _ := m.Get(ctx, "tag:bad")
	assert.False(t, found, "undecodable entries are evicted")
}

func TestOpenFallsBackToMemory(t *testing.T) {
	b, name := Open(context.Background(), "", "redis://127.0.0.1:1/0", "x:", DefaultTTLConfig())
	defer b.Close()
	assert.Equal(t, "memory", name)
	assert.IsType(t, &MemoryCache{}, b)

	b2, name := Open(context.Background(), "memory", "redis://127.0.0.1:6379/0", "x:", DefaultTTLConfig())
	defer b2.Close()
	assert.Equal(t, "memory", name)
}
