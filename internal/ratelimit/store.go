package ratelimit

import (
	"context"
	"sync"
	"time"
)

// AttemptStore counts attempts per key inside a rolling window. The call
// sites only ever increment and reset, so swapping the in-memory map for a
// shared store changes nothing above this interface.
type AttemptStore interface {
	Increment(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

type attemptEntry struct {
	count       int
	windowStart time.Time
}

// MemoryStore is the process-local implementation. Not distributed-safe;
// fine for a single instance, replaced by PostgresStore when DATABASE_URL
// is configured.
type MemoryStore struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*attemptEntry
}

func NewMemoryStore(window time.Duration) *MemoryStore {
	return &MemoryStore{
		window:  window,
		entries: make(map[string]*attemptEntry),
	}
}

func (s *MemoryStore) Increment(ctx context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	e, ok := s.entries[key]
	if !ok || now.Sub(e.windowStart) >= s.window {
		s.entries[key] = &attemptEntry{count: 1, windowStart: now}
		return 1, nil
	}
	e.count++
	return e.count, nil
}

func (s *MemoryStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Cleanup drops expired windows. Run it in its own goroutine from main.
func (s *MemoryStore) Cleanup() {
	for {
		time.Sleep(time.Minute)
		s.mu.Lock()
		for key, e := range s.entries {
			if time.Since(e.windowStart) >= s.window {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
}
