// Package memory provides an in-memory product store for development/testing.
package memory

import (
	"context"
	"sync"

	"github.com/pricewatch/pricewatch/internal/catalog"
)

// Store keeps the record set in process memory.
type Store struct {
	mu      sync.RWMutex
	records []catalog.Record
}

// NewStore constructs a Store.
func NewStore() *Store {
	return &Store{}
}

// SaveAll replaces the stored record set.
func (s *Store) SaveAll(_ context.Context, records []catalog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]catalog.Record, len(records))
	copy(s.records, records)
	return nil
}

// LoadAll returns a copy of the stored record set.
func (s *Store) LoadAll(_ context.Context) ([]catalog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}
