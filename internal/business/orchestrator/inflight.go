package orchestrator

import (
	"context"
	"sort"
	"sync"
)

// InFlightStore is the set of order ids currently being orchestrated.
type InFlightStore interface {
	// Acquire adds orderID and reports false when it was already present.
	Acquire(ctx context.Context, orderID string) (bool, error)
	Release(ctx context.Context, orderID string) error
	Active(ctx context.Context) ([]string, error)
}

// Refresher is implemented by in-flight stores whose entries expire. The orchestrator
// refreshes the entry before each item so long orders keep their claim.
type Refresher interface {
	Refresh(ctx context.Context, orderID string) error
}

// MemoryInFlight is a process-local InFlightStore. Separate processes do not see each other.
type MemoryInFlight struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewMemoryInFlight creates an empty set
func NewMemoryInFlight() *MemoryInFlight {
	return &MemoryInFlight{active: make(map[string]struct{})}
}

// Acquire implements InFlightStore
func (m *MemoryInFlight) Acquire(ctx context.Context, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[orderID]; ok {
		return false, nil
	}
	m.active[orderID] = struct{}{}
	return true, nil
}

// Release implements InFlightStore
func (m *MemoryInFlight) Release(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, orderID)
	return nil
}

// Active implements InFlightStore. Ids are sorted.
func (m *MemoryInFlight) Active(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
