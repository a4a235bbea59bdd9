package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sigtrader/internal/application/port"
)

// Repo is the postgres-backed key-value store.
type Repo struct {
	pool *pgxpool.Pool
}

var _ port.Store = (*Repo)(nil)

// New connects to the database and ensures the kv table exists.
func New(ctx context.Context, dsn string) (*Repo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	r := &Repo{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS kv (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at BIGINT NOT NULL
)`)
	return err
}

func (r *Repo) Load(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (r *Repo) Save(ctx context.Context, key string, value []byte) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`, key, string(value), time.Now().UnixMilli())
	return err
}

func (r *Repo) Close() error {
	r.pool.Close()
	return nil
}
