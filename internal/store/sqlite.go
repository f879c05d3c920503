package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pricetrack/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists snapshots in a SQLite database, one row per key.
// The snapshot stays a single document so save and load remain atomic
// without multi-table transactions.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the snapshot database under dataDir
func NewSQLite(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %v", model.ErrPersistence, err)
	}

	dbPath := filepath.Join(dataDir, "pricetrack.db")
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", model.ErrPersistence, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", model.ErrPersistence, err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		schema_version INTEGER NOT NULL,
		data TEXT NOT NULL,
		saved_at INTEGER NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: run migrations: %v", model.ErrPersistence, err)
	}
	return nil
}

// Save upserts the snapshot row for key
func (s *SQLiteStore) Save(ctx context.Context, key string, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: marshal snapshot: %v", model.ErrPersistence, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, schema_version, data, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			schema_version = excluded.schema_version,
			data = excluded.data,
			saved_at = excluded.saved_at`,
		key, snap.SchemaVersion, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("%w: write snapshot: %v", model.ErrPersistence, err)
	}
	return nil
}

// Load reads the snapshot row for key, or (nil, nil) if none exists
func (s *SQLiteStore) Load(ctx context.Context, key string) (*model.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM snapshots WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read snapshot: %v", model.ErrPersistence, err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("%w: unmarshal snapshot: %v", model.ErrPersistence, err)
	}
	return &snap, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
