package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionsAreSingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessions()
	require.NoError(t, s.Save(ctx, "tok", "user-1", time.Hour))

	userID, ok, err := s.Take(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user-1", userID)

	_, ok, err = s.Take(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySessionsExpire(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessions()
	start := time.Now()
	s.now = func() time.Time { return start }
	require.NoError(t, s.Save(ctx, "old", "user-1", time.Minute))
	require.NoError(t, s.Save(ctx, "kept", "user-1", time.Hour))

	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, ok, err := s.Take(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "new", "user-2", time.Minute))
	assert.Len(t, s.items, 2)
}
