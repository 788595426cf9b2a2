package deploy

import (
	"context"
	"sync"
	"time"
)

// Guard hands out the single in-flight lease of a site. The controller
// always checks its own state first; a Guard extends the invariant across
// processes that share a store.
type Guard interface {
	// Acquire takes the lease for siteID. It returns ErrAlreadyInFlight if
	// the lease is held. The lease expires after ttl if never released.
	Acquire(ctx context.Context, siteID string, ttl time.Duration) (release func(), err error)
	// Held reports whether any process holds the lease for siteID.
	Held(ctx context.Context, siteID string) (bool, error)
}

// MemoryGuard is a process-local Guard.
type MemoryGuard struct {
	mu     sync.Mutex
	leases map[string]time.Time
	now    func() time.Time
}

// NewMemoryGuard creates a MemoryGuard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{leases: make(map[string]time.Time), now: time.Now}
}

// Acquire takes the lease for siteID.
func (g *MemoryGuard) Acquire(ctx context.Context, siteID string, ttl time.Duration) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if exp, ok := g.leases[siteID]; ok && now.Before(exp) {
		return nil, ErrAlreadyInFlight
	}
	exp := now.Add(ttl)
	g.leases[siteID] = exp

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			// Only drop our own lease; an expired one may have been retaken.
			if g.leases[siteID] == exp {
				delete(g.leases, siteID)
			}
		})
	}, nil
}

// Held reports whether the lease for siteID is held.
func (g *MemoryGuard) Held(ctx context.Context, siteID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	exp, ok := g.leases[siteID]
	return ok && g.now().Before(exp), nil
}
