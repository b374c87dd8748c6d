// Package mysql implements a flow registry storage backend using MySQL.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/micromdm/nanointake/engine/storage/kv"
	"github.com/micromdm/nanointake/utils/kv/kvsql"
)

// MySQLStorage implements a storage.AllStorage using MySQL.
type MySQLStorage struct {
	*kv.KV
	db *sql.DB
}

type config struct {
	driver string
	dsn    string
	db     *sql.DB
}

// Option allows configuring a MySQLStorage.
type Option func(*config)

// WithDSN sets the storage MySQL data source name.
func WithDSN(dsn string) Option {
	return func(c *config) {
		c.dsn = dsn
	}
}

// WithDriver sets a custom MySQL driver for the storage.
// Default driver is "mysql" but is ignored if WithDB is used.
func WithDriver(driver string) Option {
	return func(c *config) {
		c.driver = driver
	}
}

// WithDB sets a custom MySQL *sql.DB to the storage.
// If set, driver passed via WithDriver is ignored.
func WithDB(db *sql.DB) Option {
	return func(c *config) {
		c.db = db
	}
}

// New creates and returns a new MySQLStorage.
// The flow and session tables are created if they do not exist.
func New(opts ...Option) (*MySQLStorage, error) {
	cfg := &config{driver: "mysql"}
	for _, opt := range opts {
		opt(cfg)
	}
	var err error
	if cfg.db == nil {
		cfg.db, err = sql.Open(cfg.driver, cfg.dsn)
		if err != nil {
			return nil, err
		}
	}
	ctx := context.Background()
	if err = cfg.db.PingContext(ctx); err != nil {
		return nil, err
	}
	flows, err := kvsql.NewBucket(ctx, cfg.db, kvsql.MySQL, "intake_flows")
	if err != nil {
		return nil, fmt.Errorf("flow bucket: %w", err)
	}
	sessions, err := kvsql.NewBucket(ctx, cfg.db, kvsql.MySQL, "intake_sessions")
	if err != nil {
		return nil, fmt.Errorf("session bucket: %w", err)
	}
	return &MySQLStorage{KV: kv.New(flows, sessions), db: cfg.db}, nil
}

// Close closes the underlying database.
func (s *MySQLStorage) Close() error {
	return s.db.Close()
}
