package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerExcludesOtherOwners(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	lease, err := l.Acquire(ctx, 7, "owner-a")
	require.NoError(t, err)
	assert.Equal(t, "owner-a", lease.Owner)

	_, err = l.Acquire(ctx, 7, "owner-b")
	assert.ErrorIs(t, err, ErrLocked)

	// Re-entrant for the same owner.
	_, err = l.Acquire(ctx, 7, "owner-a")
	assert.NoError(t, err)

	// A different meeting is independent.
	_, err = l.Acquire(ctx, 8, "owner-b")
	assert.NoError(t, err)
}

func TestMemoryLockerExpiry(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.Now = func() time.Time { return base }

	_, err := l.Acquire(ctx, 7, "owner-a")
	require.NoError(t, err)

	l.Now = func() time.Time { return base.Add(DefaultTTL - time.Second) }
	_, err = l.Acquire(ctx, 7, "owner-b")
	assert.ErrorIs(t, err, ErrLocked)

	l.Now = func() time.Time { return base.Add(DefaultTTL + time.Second) }
	_, err = l.Acquire(ctx, 7, "owner-b")
	assert.NoError(t, err)
}

func TestMemoryLockerRelease(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	_, err := l.Acquire(ctx, 7, "owner-a")
	require.NoError(t, err)

	// Releasing someone else's lease is a no-op.
	require.NoError(t, l.Release(ctx, 7, "owner-b"))
	_, err = l.Acquire(ctx, 7, "owner-b")
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, l.Release(ctx, 7, "owner-a"))
	_, err = l.Acquire(ctx, 7, "owner-b")
	assert.NoError(t, err)
}
