// Package presence tracks which users currently hold at least one open
// connection. The registry is constructed once at startup and injected;
// nothing in the process reads presence through ambient globals.
package presence

import (
	"context"
	"sync"
)

// Registry is the set of currently connected user ids.
//
// MarkOnline and MarkOffline are idempotent and commutative per user, so
// concurrent connect/disconnect of the same user cannot corrupt state.
type Registry interface {
	// MarkOnline adds the user to the registry.
	MarkOnline(ctx context.Context, userID int64) error

	// MarkOffline removes the user from the registry. Removing an absent
	// user is a no-op.
	MarkOffline(ctx context.Context, userID int64) error

	// IsOnline reports whether the user is currently connected.
	IsOnline(ctx context.Context, userID int64) bool
}

// MemoryRegistry keeps presence in process memory. State is lost on restart,
// which is fine: presence is rebuilt from live connections.
type MemoryRegistry struct {
	mu     sync.RWMutex
	online map[int64]struct{}
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		online: make(map[int64]struct{}),
	}
}

// MarkOnline adds the user to the registry.
func (r *MemoryRegistry) MarkOnline(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[userID] = struct{}{}
	return nil
}

// MarkOffline removes the user from the registry.
func (r *MemoryRegistry) MarkOffline(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.online, userID)
	return nil
}

// IsOnline reports whether the user is currently connected.
func (r *MemoryRegistry) IsOnline(_ context.Context, userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.online[userID]
	return ok
}
