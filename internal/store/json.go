package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pricetrack/internal/model"
)

// JSONStore persists snapshots as pretty-printed JSON files, one per key,
// under a data directory. Writes go through a temp file plus rename so a
// crash mid-write never leaves a partial snapshot behind.
type JSONStore struct {
	dataDir string
}

// NewJSON creates a JSONStore rooted at dataDir
func NewJSON(dataDir string) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %v", model.ErrPersistence, err)
	}
	return &JSONStore{dataDir: dataDir}, nil
}

func (s *JSONStore) path(key string) string {
	return filepath.Join(s.dataDir, key+".json")
}

// Save writes the snapshot for key
func (s *JSONStore) Save(ctx context.Context, key string, snap *model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal snapshot: %v", model.ErrPersistence, err)
	}

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: write snapshot: %v", model.ErrPersistence, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: commit snapshot: %v", model.ErrPersistence, err)
	}
	return nil
}

// Load reads the snapshot for key, or (nil, nil) if none exists
func (s *JSONStore) Load(ctx context.Context, key string) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read snapshot: %v", model.ErrPersistence, err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: unmarshal snapshot: %v", model.ErrPersistence, err)
	}
	return &snap, nil
}

// Close is a no-op for the file store
func (s *JSONStore) Close() error {
	return nil
}
