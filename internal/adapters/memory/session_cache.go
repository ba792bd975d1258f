package memory

// Package memory provides in-process adapters, used in development and tests.

import (
	"context"
	"sync"

	"github.com/tractify/tractify-go/internal/ports"
)

// SessionCache keeps the session snapshot in process memory. Snapshots do
// not survive a restart; it exists so the session core always has a cache
// to talk to when Redis is not configured.
type SessionCache struct {
	mu   sync.Mutex
	snap ports.Snapshot
	set  bool
}

// NewSessionCache creates an empty in-memory session cache.
func NewSessionCache() *SessionCache {
	return &SessionCache{}
}

func (c *SessionCache) Save(_ context.Context, snap ports.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
	c.set = true
	return nil
}

func (c *SessionCache) Load(_ context.Context) (ports.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set {
		return ports.Snapshot{}, ErrNoSnapshot
	}
	return c.snap, nil
}

func (c *SessionCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = ports.Snapshot{}
	c.set = false
	return nil
}

// ErrNoSnapshot is returned when no snapshot is stored.
type noSnapshotError struct{}

func (noSnapshotError) Error() string { return "no session snapshot" }

var ErrNoSnapshot error = noSnapshotError{}
