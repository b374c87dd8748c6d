// Package kvsql implements a key-value store in a single SQL table.
// MySQL and SQLite are supported.
package kvsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/micromdm/nanointake/utils/kv"
)

// Dialect selects the SQL flavor used for schema and upserts.
type Dialect int

const (
	MySQL Dialect = iota
	SQLite
)

var tableNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// KVSQL is a key-value store backed by one SQL table.
type KVSQL struct {
	db *sql.DB

	getQuery    string
	setQuery    string
	hasQuery    string
	deleteQuery string
	keysQuery   string
}

// NewBucket creates the table (if needed) and returns a bucket stored in it.
func NewBucket(ctx context.Context, db *sql.DB, dialect Dialect, table string) (*KVSQL, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	var schema, upsert string
	switch dialect {
	case MySQL:
		schema = `CREATE TABLE IF NOT EXISTS ` + table + ` (
	k VARCHAR(255) NOT NULL PRIMARY KEY,
	v MEDIUMBLOB NOT NULL
)`
		upsert = `INSERT INTO ` + table + ` (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)`
	case SQLite:
		schema = `CREATE TABLE IF NOT EXISTS ` + table + ` (
	k TEXT NOT NULL PRIMARY KEY,
	v BLOB NOT NULL
)`
		upsert = `INSERT INTO ` + table + ` (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`
	default:
		return nil, fmt.Errorf("unknown dialect: %d", dialect)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating table %s: %w", table, err)
	}
	return &KVSQL{
		db:          db,
		getQuery:    `SELECT v FROM ` + table + ` WHERE k = ?`,
		setQuery:    upsert,
		hasQuery:    `SELECT COUNT(*) FROM ` + table + ` WHERE k = ?`,
		deleteQuery: `DELETE FROM ` + table + ` WHERE k = ?`,
		keysQuery:   `SELECT k FROM ` + table,
	}, nil
}

func (s *KVSQL) Get(ctx context.Context, k string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, s.getQuery, k).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", kv.ErrKeyNotFound, k)
	}
	return v, err
}

func (s *KVSQL) Set(ctx context.Context, k string, v []byte) error {
	if v == nil {
		v = []byte{}
	}
	_, err := s.db.ExecContext(ctx, s.setQuery, k, v)
	return err
}

func (s *KVSQL) Has(ctx context.Context, k string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.hasQuery, k).Scan(&n)
	return n > 0, err
}

func (s *KVSQL) Delete(ctx context.Context, k string) error {
	_, err := s.db.ExecContext(ctx, s.deleteQuery, k)
	return err
}

// Keys returns the keys in this bucket.
// The keys are read fully before being sent so no connection is held
// while the caller consumes the channel.
func (s *KVSQL) Keys(cancel <-chan struct{}) <-chan string {
	r := make(chan string)
	go func() {
		defer close(r)
		rows, err := s.db.Query(s.keysQuery)
		if err != nil {
			return
		}
		var keys []string
		for rows.Next() {
			var k string
			if err = rows.Scan(&k); err != nil {
				break
			}
			keys = append(keys, k)
		}
		rows.Close()
		for _, k := range keys {
			select {
			case <-cancel:
				return
			case r <- k:
			}
		}
	}()
	return r
}
