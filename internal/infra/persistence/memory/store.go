// Package memory provides an in-memory exhibit gateway used for tests and
// ephemeral environments.
package memory

import (
	"context"
	"sync"

	"exhibitcore/pkg/domain"
)

var _ domain.ClosableGateway = (*Store)(nil)

// Store keeps the collection in process memory. Every load and save copies,
// so callers never share state with the store.
type Store struct {
	mu       sync.RWMutex
	exhibits []domain.Exhibit
	saves    int
}

// NewStore returns a store seeded with the given exhibits.
func NewStore(seed ...domain.Exhibit) *Store {
	return &Store{exhibits: domain.CloneExhibits(seed)}
}

// LoadAll returns a copy of the stored collection; never nil.
func (s *Store) LoadAll(ctx context.Context) ([]domain.Exhibit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := domain.CloneExhibits(s.exhibits)
	if out == nil {
		out = []domain.Exhibit{}
	}
	return out, nil
}

// SaveAll replaces the stored collection with a copy of exhibits.
func (s *Store) SaveAll(ctx context.Context, exhibits []domain.Exhibit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exhibits = domain.CloneExhibits(exhibits)
	s.saves++
	return nil
}

// Saves reports how many times SaveAll succeeded.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
