package dedup

import (
	"context"
	"sync"
	"time"
)

// Store persists fingerprint hashes until they expire. Implementations must
// treat an expired entry as absent even if it has not been physically purged.
type Store interface {
	// Has reports whether the hash is present and unexpired.
	Has(ctx context.Context, hash string) (bool, error)
	// Upsert records the hash for the given retention, refreshing any
	// existing expiry.
	Upsert(ctx context.Context, hash string, retention time.Duration) error
}

// MemoryStore is the default in-process Store: a map of hash to expiry with
// lazy purging on read. The clock is injected so tests can control expiry
// without sleeping.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]time.Time
}

// NewMemoryStore returns an empty store. A nil clock means wall clock.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now, entries: make(map[string]time.Time)}
}

func (s *MemoryStore) Has(_ context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.entries[hash]
	if !ok {
		return false, nil
	}
	if s.now().After(expiry) {
		delete(s.entries, hash)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Upsert(_ context.Context, hash string, retention time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[hash] = s.now().Add(retention)
	return nil
}

// Len reports the number of entries currently held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops expired entries and reports how many were removed. Lazy
// purging already keeps reads correct; the sweep just bounds memory.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for hash, expiry := range s.entries {
		if now.After(expiry) {
			delete(s.entries, hash)
			removed++
		}
	}
	return removed
}
