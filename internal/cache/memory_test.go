package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetPut(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemory(3, clockwork.NewFakeClock())
	require.NoError(t, err)

	require.NoError(t, c.Put(ctx, "a", []byte("A"), time.Minute))

	got, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("A"), got)

	_, ok, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	c, err := NewMemory(3, clock)
	require.NoError(t, err)

	require.NoError(t, c.Put(ctx, "a", []byte("A"), time.Minute))
	require.NoError(t, c.Put(ctx, "forever", []byte("F"), 0))

	clock.Advance(59 * time.Second)
	_, ok, _ := c.Get(ctx, "a")
	assert.True(t, ok, "entry should live until its ttl")

	clock.Advance(time.Second)
	_, ok, _ = c.Get(ctx, "a")
	assert.False(t, ok, "entry should expire at its ttl")
	assert.Equal(t, 1, c.Len(), "expired entry should be collected on read")

	clock.Advance(24 * time.Hour)
	_, ok, _ = c.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemory(2, nil)
	require.NoError(t, err)

	require.NoError(t, c.Put(ctx, "a", []byte("A"), 0))
	require.NoError(t, c.Put(ctx, "b", []byte("B"), 0))
	_, _, _ = c.Get(ctx, "a")
	require.NoError(t, c.Put(ctx, "c", []byte("C"), 0))

	_, ok, _ := c.Get(ctx, "a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")
	_, ok, _ = c.Get(ctx, "b")
	assert.False(t, ok, "b should have been evicted")
}

func TestMemory_InvalidSize(t *testing.T) {
	_, err := NewMemory(0, nil)
	require.Error(t, err)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemory(2, nil)
	require.NoError(t, err)

	type point struct {
		Lat, Lon float64
	}
	require.NoError(t, PutJSON(ctx, c, "p", point{38.7, -9.1}, time.Minute))

	var got point
	ok, err := GetJSON(ctx, c, "p", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, point{38.7, -9.1}, got)

	require.NoError(t, c.Put(ctx, "bad", []byte("{"), time.Minute))
	_, err = GetJSON(ctx, c, "bad", &got)
	require.Error(t, err)
}
