package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shelfgate/shelfgate/internal/config"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS assets (
		asset_id   BIGSERIAL PRIMARY KEY,
		tag_id     TEXT UNIQUE NOT NULL,
		title      TEXT NOT NULL,
		author     TEXT,
		isbn       TEXT,
		category   TEXT,
		status     TEXT NOT NULL DEFAULT 'available',
		created_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS identities (
		identity_id BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		contact     TEXT UNIQUE,
		phone       TEXT,
		embedding   BYTEA NOT NULL,
		enrolled_at TEXT NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	// No foreign key on asset_id: a transaction row is a historic
	// snapshot and must survive deletion of the asset it references.
	// Identities are only ever soft-deleted, so their key stays.
	`CREATE TABLE IF NOT EXISTS transactions (
		transaction_id BIGSERIAL PRIMARY KEY,
		asset_id       BIGINT NOT NULL,
		identity_id    BIGINT NOT NULL REFERENCES identities(identity_id),
		tag_id         TEXT NOT NULL,
		issued_at      TEXT NOT NULL,
		due_at         TEXT NOT NULL,
		returned_at    TEXT,
		status         TEXT NOT NULL DEFAULT 'issued'
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS transactions_open_asset_idx
		ON transactions(asset_id) WHERE status = 'issued';`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		log_id         BIGSERIAL PRIMARY KEY,
		transaction_id BIGINT REFERENCES transactions(transaction_id),
		action         TEXT NOT NULL,
		logged_at      TEXT NOT NULL,
		remarks        TEXT
	);`,
}

// OpenPostgres connects to a PostgreSQL backend and applies the schema.
// Meant for deployments that already run a database server; the
// sqlite backend is the station default.
func OpenPostgres(ctx context.Context, cfg *config.StoreConfig) (*SQLStore, error) {
	if cfg.URL == "" {
		return nil, errors.New("store URL is required for the postgres driver")
	}

	db, err := openSQL("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	s := &SQLStore{db: db, d: dialect{
		name:              "postgres",
		returning:         true,
		isUniqueViolation: postgresUniqueViolation,
	}}

	for _, stmt := range postgresSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return s, nil
}

func postgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	return false
}
