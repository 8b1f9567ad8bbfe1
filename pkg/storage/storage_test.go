package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acartag7/callguard/pkg/session"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	snap := session.Snapshot{ID: "s1", AttemptCount: 3}
	require.NoError(t, m.Put(ctx, snap))

	got, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.AttemptCount)

	require.NoError(t, m.Delete(ctx, "s1"))
	_, err = m.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}
