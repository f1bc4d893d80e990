package memory

import (
	"context"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Snapshot),
	}
}

// copySnapshot isolates the stored value from the caller. Trees are immutable
// once committed, so the tree itself is shared.
func copySnapshot(snap *domain.Snapshot) *domain.Snapshot {
	c := *snap
	c.Boundaries = make([]domain.Boundary, len(snap.Boundaries))
	copy(c.Boundaries, snap.Boundaries)
	return &c
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, pageID string, snap *domain.Snapshot) error {
	c := copySnapshot(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[pageID] = c
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, pageID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[pageID]
	if !ok {
		return nil, domain.ErrPageNotFound
	}
	return copySnapshot(snap), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, pageID)
	return nil
}

// List returns stored pages.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := make([]string, 0, len(s.data))
	for id := range s.data {
		pages = append(pages, id)
	}
	return pages, nil
}
