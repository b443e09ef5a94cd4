package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_SetGetRemove(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "degimen-cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "degimen-cart", "[]"))
	value, ok, err := s.Get(ctx, "degimen-cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)

	require.NoError(t, s.Remove(ctx, "degimen-cart"))
	_, ok, _ = s.Get(ctx, "degimen-cart")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStorage_RemoveMissingKey(t *testing.T) {
	s := NewMemoryStorage()

	assert.NoError(t, s.Remove(context.Background(), "nonexistent"))
}

func TestPrefixed_IsolatesKeySpaces(t *testing.T) {
	base := NewMemoryStorage()
	ctx := context.Background()
	a := Prefixed(base, "client-a")
	b := Prefixed(base, "client-b")

	require.NoError(t, a.Set(ctx, "degimen-cart", "a"))
	require.NoError(t, b.Set(ctx, "degimen-cart", "b"))

	va, _, _ := a.Get(ctx, "degimen-cart")
	vb, _, _ := b.Get(ctx, "degimen-cart")
	assert.Equal(t, "a", va)
	assert.Equal(t, "b", vb)

	raw, ok, _ := base.Get(ctx, "client-a:degimen-cart")
	assert.True(t, ok)
	assert.Equal(t, "a", raw)

	require.NoError(t, a.Remove(ctx, "degimen-cart"))
	_, ok, _ = a.Get(ctx, "degimen-cart")
	assert.False(t, ok)
	_, ok, _ = b.Get(ctx, "degimen-cart")
	assert.True(t, ok)
}
