package availability

import (
	"context"
	"sync"
	"time"

	"oip/autopurchase/internal/model"
)

// Store caches availability results. A nil result with nil error is a miss.
type Store interface {
	Get(ctx context.Context, key string) (*model.AvailabilityResult, error)
	Set(ctx context.Context, key string, result *model.AvailabilityResult, ttl time.Duration) error
	Size(ctx context.Context) int
}

type memoryEntry struct {
	result    *model.AvailabilityResult
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Expired entries are dropped on read.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, key string) (*model.AvailabilityResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	return entry.result, nil
}

// Set implements Store
func (s *MemoryStore) Set(ctx context.Context, key string, result *model.AvailabilityResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		result:    result,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Size implements Store. It counts entries that have not been evicted yet.
func (s *MemoryStore) Size(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
