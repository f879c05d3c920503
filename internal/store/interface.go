package store

import (
	"context"

	"pricetrack/internal/model"
)

// Store persists engine snapshots as opaque documents under a key.
// Both the JSON file store and the SQLite store implement this interface.
// Load returns (nil, nil) when no snapshot exists for the key.
type Store interface {
	Save(ctx context.Context, key string, snap *model.Snapshot) error
	Load(ctx context.Context, key string) (*model.Snapshot, error)
	Close() error
}
