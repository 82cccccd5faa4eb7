package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryLocker is an in-process Locker for tests and dev mode.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[int64]Lease
	ttl    time.Duration

	// Now is replaceable so expiry can be tested.
	Now func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		leases: make(map[int64]Lease),
		ttl:    DefaultTTL,
		Now:    time.Now,
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, meetingID int64, owner string) (*Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.Now().Unix()
	if held, ok := l.leases[meetingID]; ok && held.ExpiresAt >= now && held.Owner != owner {
		return nil, ErrLocked
	}
	lease := Lease{
		MeetingID: fmt.Sprintf("%d", meetingID),
		Owner:     owner,
		ExpiresAt: now + int64(l.ttl.Seconds()),
	}
	l.leases[meetingID] = lease
	return &lease, nil
}

func (l *MemoryLocker) Release(ctx context.Context, meetingID int64, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if held, ok := l.leases[meetingID]; ok && held.Owner == owner {
		delete(l.leases, meetingID)
	}
	return nil
}
