package snapshot

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements Store in memory. Used when no DSN is configured
// and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Snapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Payload = append([]byte(nil), s.Payload...)
	m.items = append(m.items, s)
	return nil
}

func (m *MemoryStore) Latest(ctx context.Context, branch string) (Snapshot, error) {
	list, err := m.List(ctx, branch, 1)
	if err != nil {
		return Snapshot{}, err
	}
	if len(list) == 0 {
		return Snapshot{}, ErrNotFound
	}
	return list[0], nil
}

func (m *MemoryStore) List(_ context.Context, branch string, limit int) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Walk backwards so later saves win ties once stably sorted.
	var matched []Snapshot
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].Branch == branch {
			matched = append(matched, m.items[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].TakenAt.After(matched[j].TakenAt)
	})

	if limit = normalizeLimit(limit); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MemoryStore) Close() error { return nil }
