package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	_, ok := m.Get(ctx, "missing")
	assert.False(t, ok)

	m.Set(ctx, "census-30301", []byte(`{"population":50000}`))
	data, ok := m.Get(ctx, "census-30301")
	require.True(t, ok)
	assert.Equal(t, `{"population":50000}`, string(data))
}

func TestMemoryTTLExpiry(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	base := time.Now()
	m.now = func() time.Time { return base }
	m.Set(ctx, "k", []byte("v"))

	m.now = func() time.Time { return base.Add(3599 * time.Second) }
	_, ok := m.Get(ctx, "k")
	assert.True(t, ok, "entry just under the TTL should still be served")

	m.now = func() time.Time { return base.Add(3601 * time.Second) }
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok, "entry past the TTL should be gone")

	// The expired entry was deleted, not just hidden.
	m.mu.Lock()
	_, present := m.entries["k"]
	m.mu.Unlock()
	assert.False(t, present)
}

func TestMemoryOverwrite(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	m.Set(ctx, "k", []byte("first"))
	m.Set(ctx, "k", []byte("second"))

	data, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "second", string(data))
}

type figure struct {
	Population int `json:"population"`
}

func TestGetOrFetch(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	calls := 0
	fetch := func(ctx context.Context) (*figure, error) {
		calls++
		return &figure{Population: 50000}, nil
	}

	first, err := GetOrFetch(ctx, m, "census-30301", fetch)
	require.NoError(t, err)
	second, err := GetOrFetch(ctx, m, "census-30301", fetch)
	require.NoError(t, err)

	assert.Equal(t, 50000, first.Population)
	assert.Equal(t, 50000, second.Population)
	assert.Equal(t, 1, calls, "second call should be served from cache")
}

func TestGetOrFetchErrorNotCached(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	calls := 0
	fetch := func(ctx context.Context) (*figure, error) {
		calls++
		return nil, eris.New("upstream down")
	}

	_, err := GetOrFetch(ctx, m, "k", fetch)
	require.Error(t, err)
	_, err = GetOrFetch(ctx, m, "k", fetch)
	require.Error(t, err)
	assert.Equal(t, 2, calls, "failures must not be cached")
}

func TestGetOrFetchCorruptEntryIsMiss(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx := context.Background()

	m.Set(ctx, "k", []byte("{not json"))

	got, err := GetOrFetch(ctx, m, "k", func(ctx context.Context) (*figure, error) {
		return &figure{Population: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got.Population)
}
