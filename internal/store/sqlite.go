package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

// sqliteSchema uses TEXT timestamps in the fixed circulation format so
// the database stays portable across backends.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS assets (
		asset_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		tag_id     TEXT UNIQUE NOT NULL,
		title      TEXT NOT NULL,
		author     TEXT,
		isbn       TEXT,
		category   TEXT,
		status     TEXT NOT NULL DEFAULT 'available',
		created_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS identities (
		identity_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		contact     TEXT UNIQUE,
		phone       TEXT,
		embedding   BLOB NOT NULL,
		enrolled_at TEXT NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT 1
	);`,
	// No foreign key on asset_id: a transaction row is a historic
	// snapshot and must survive deletion of the asset it references.
	// Identities are only ever soft-deleted, so their key stays.
	`CREATE TABLE IF NOT EXISTS transactions (
		transaction_id INTEGER PRIMARY KEY AUTOINCREMENT,
		asset_id       INTEGER NOT NULL,
		identity_id    INTEGER NOT NULL REFERENCES identities(identity_id),
		tag_id         TEXT NOT NULL,
		issued_at      TEXT NOT NULL,
		due_at         TEXT NOT NULL,
		returned_at    TEXT,
		status         TEXT NOT NULL DEFAULT 'issued'
	);`,
	// At most one open transaction per asset at any time.
	`CREATE UNIQUE INDEX IF NOT EXISTS transactions_open_asset_idx
		ON transactions(asset_id) WHERE status = 'issued';`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		log_id         INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_id INTEGER REFERENCES transactions(transaction_id),
		action         TEXT NOT NULL,
		logged_at      TEXT NOT NULL,
		remarks        TEXT
	);`,
}

// OpenSQLite opens (or creates) the station database at path and
// applies the schema. This is the default backend: a single-station
// deployment needs no database server.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// busy_timeout lets status pollers and a committing session share
	// the file; foreign keys are off by default in SQLite.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", path)
	db, err := openSQL("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLStore{db: db, d: dialect{
		name:              "sqlite",
		returning:         false,
		isUniqueViolation: sqliteUniqueViolation,
	}}

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return s, nil
}

func sqliteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
