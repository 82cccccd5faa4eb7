package enrol

import (
	"context"
	"sync"
)

// MemoryRoster is an in-memory Roster for tests and dev mode.
type MemoryRoster struct {
	mu      sync.Mutex
	users   map[int64]User
	courses map[int64]map[int64]bool
}

func NewMemoryRoster() *MemoryRoster {
	return &MemoryRoster{
		users:   make(map[int64]User),
		courses: make(map[int64]map[int64]bool),
	}
}

// Enrol adds (or updates) a user and enrols them in the course.
func (r *MemoryRoster) Enrol(courseID int64, u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	if r.courses[courseID] == nil {
		r.courses[courseID] = make(map[int64]bool)
	}
	r.courses[courseID][u.ID] = true
}

// Unenrol removes the user from the course roster.
func (r *MemoryRoster) Unenrol(courseID, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.courses[courseID], userID)
}

func (r *MemoryRoster) EnrolledUsers(ctx context.Context, courseID int64) (map[int64]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]User)
	for id := range r.courses[courseID] {
		out[id] = r.users[id]
	}
	return out, nil
}

func (r *MemoryRoster) GetUser(ctx context.Context, userID int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
