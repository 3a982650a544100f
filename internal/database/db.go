package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Options tune the sqlite connection. Zero values fall back to the
// production defaults.
type Options struct {
	Path        string
	BusyTimeout time.Duration
}

type DB struct {
	*sql.DB
}

// Open opens (or creates) the sqlite database at opts.Path and applies the
// schema. The pool is capped at a single connection; sqlite serializes
// writers anyway, and one connection keeps monitor sweeps and workflow
// audits from tripping over SQLITE_BUSY.
func Open(opts Options) (*DB, error) {
	if opts.Path == "" {
		opts.Path = "domainscope.db"
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}

	sqlDB, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", opts.BusyTimeout.Milliseconds()),
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	db := &DB{sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	_, err := db.Exec(schema)
	return err
}
