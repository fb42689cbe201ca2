// Package file implements the product store as a single JSON file.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pricewatch/pricewatch/internal/catalog"
)

// DefaultPath is the legacy products file name.
const DefaultPath = "products.json"

// Store persists the full record set as one JSON document. SaveAll replaces
// the file contents wholesale.
type Store struct {
	mu   sync.Mutex
	path string
}

// New builds a Store writing to path.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// SaveAll writes the full record set, replacing any previous contents. An
// empty set produces an empty JSON array, not a missing file.
func (s *Store) SaveAll(ctx context.Context, records []catalog.Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if records == nil {
		records = []catalog.Record{}
	}
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create store dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// LoadAll returns the stored record set. A missing file is an empty store,
// not an error.
func (s *Store) LoadAll(ctx context.Context) ([]catalog.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context canceled: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var records []catalog.Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", s.path, err)
	}
	return records, nil
}
