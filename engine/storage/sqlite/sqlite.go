// Package sqlite implements a flow registry storage backend using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/micromdm/nanointake/engine/storage/kv"
	"github.com/micromdm/nanointake/utils/kv/kvsql"

	_ "modernc.org/sqlite"
)

// SQLiteStorage implements a storage.AllStorage using SQLite.
type SQLiteStorage struct {
	*kv.KV
	db *sql.DB
}

// New opens the SQLite database at dsn and creates the flow and session tables.
func New(dsn string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	ctx := context.Background()
	flows, err := kvsql.NewBucket(ctx, db, kvsql.SQLite, "intake_flows")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("flow bucket: %w", err)
	}
	sessions, err := kvsql.NewBucket(ctx, db, kvsql.SQLite, "intake_sessions")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("session bucket: %w", err)
	}
	return &SQLiteStorage{KV: kv.New(flows, sessions), db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
