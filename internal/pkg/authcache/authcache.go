// Package authcache keeps a short-TTL cache of the public-safe auth status
// snapshot so repeated status checks do not hit the origin service. The
// backing store is an injected dependency so tests run against an isolated
// in-memory instance while production uses Redis.
package authcache

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// DefaultTTL is the staleness window for cached snapshots.
const DefaultTTL = 30 * time.Second

// Snapshot is the public-safe auth status. It never carries the session id.
type Snapshot struct {
	HasAuth  bool   `json:"hasAuth"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// LoggedOut is the snapshot returned when no authenticated state is known.
func LoggedOut() Snapshot {
	return Snapshot{HasAuth: false}
}

// Store is a keyed snapshot store with whole-value replace semantics.
type Store interface {
	Get(ctx context.Context, key string) (Snapshot, bool)
	Set(ctx context.Context, key string, snap Snapshot, ttl time.Duration)
	Clear(ctx context.Context, key string)
}

// FetchFunc produces a fresh snapshot, typically by checking session
// liveness against the origin service.
type FetchFunc func(ctx context.Context) (Snapshot, error)

// Cache wraps a Store with the TTL and the fail-open-to-logged-out policy.
type Cache struct {
	store Store
	ttl   time.Duration
}

func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl}
}

// GetStatus returns the cached snapshot when fresh, otherwise fetches a new
// one and stores it. A failed fetch clears the cache entry and yields the
// logged-out snapshot; the cache never fails open to "logged in".
func (c *Cache) GetStatus(ctx context.Context, key string, fetch FetchFunc) Snapshot {
	if snap, ok := c.store.Get(ctx, key); ok {
		return snap
	}

	snap, err := fetch(ctx)
	if err != nil {
		log.Warnf("[AuthCache] status fetch failed: %v", err)
		c.store.Clear(ctx, key)
		return LoggedOut()
	}

	c.store.Set(ctx, key, snap, c.ttl)
	return snap
}

// Clear evicts the cached snapshot, forcing the next GetStatus to fetch.
func (c *Cache) Clear(ctx context.Context, key string) {
	c.store.Clear(ctx, key)
}

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Reads and writes replace whole
// values; the mutex only protects the map itself.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok || s.now().After(entry.expiresAt) {
		return Snapshot{}, false
	}
	return entry.snap, true
}

func (s *MemoryStore) Set(_ context.Context, key string, snap Snapshot, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{snap: snap, expiresAt: s.now().Add(ttl)}
}

func (s *MemoryStore) Clear(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}
