package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "fx:USD:IDR", "16250", time.Minute))

	v, ok, err := m.Get(ctx, "fx:USD:IDR")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "16250", v)

	now = now.Add(2 * time.Minute)
	_, ok, err = m.Get(ctx, "fx:USD:IDR")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", "v", 0))
	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, _ := m.Get(ctx, "k")
	assert.False(t, ok)
}
