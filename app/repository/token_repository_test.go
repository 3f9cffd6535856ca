package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenRepository(t *testing.T) {
	repo := NewTokenRepository(nil)
	mem := repo.(*memoryTokenRepository)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return now }
	ctx := context.Background()

	revoked, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, repo.Revoke(ctx, "jti-1", time.Minute))
	revoked, _ = repo.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = repo.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)

	// already expired tokens are not stored
	require.NoError(t, repo.Revoke(ctx, "jti-2", 0))
	assert.NotContains(t, mem.revoked, "jti-2")
}
