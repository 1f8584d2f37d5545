package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexbotov/showcase/pkg/showcase"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB is a Store backed by a SQL database
type DB struct {
	*sql.DB
	codec payloadCodec
}

// New creates a new database connection. key may be nil.
func New(driver, dsn string, key *[32]byte) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, codec: payloadCodec{key: key}}, nil
}

// Migrate creates the contexts table
func (db *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS showcase_contexts (
		id VARCHAR(255) PRIMARY KEY,
		state VARCHAR(32) NOT NULL,
		payload BYTEA NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_showcase_contexts_updated ON showcase_contexts(updated_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Save inserts or replaces the context stored under key
func (db *DB) Save(ctx context.Context, key string, wc *showcase.Context) error {
	payload, err := db.codec.encode(wc)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO showcase_contexts (id, state, payload, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET state = EXCLUDED.state, payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`, key, string(wc.State()), payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save context: %w", err)
	}
	return nil
}

// Load returns the context stored under key
func (db *DB) Load(ctx context.Context, key string) (*showcase.Context, error) {
	var payload []byte
	err := db.QueryRowContext(ctx,
		"SELECT payload FROM showcase_contexts WHERE id = $1", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load context: %w", err)
	}
	return db.codec.decode(payload)
}

// Delete removes the context stored under key
func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM showcase_contexts WHERE id = $1", key); err != nil {
		return fmt.Errorf("failed to delete context: %w", err)
	}
	return nil
}

// Purge removes contexts not saved since before, i.e. abandoned walks
func (db *DB) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM showcase_contexts WHERE updated_at < $1", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge contexts: %w", err)
	}
	return res.RowsAffected()
}

var _ Store = (*DB)(nil)
