package notify

import (
	"context"
	"sync"
)

// Capture records published events in memory. Used by tests and dev mode.
type Capture struct {
	mu     sync.Mutex
	events []Event
}

func NewCapture() *Capture {
	return &Capture{}
}

func (c *Capture) Publish(ctx context.Context, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

// Events returns a copy of everything published so far.
func (c *Capture) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Named returns the captured events with the given name.
func (c *Capture) Named(name string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, ev := range c.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}
