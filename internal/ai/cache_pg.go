package ai

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type pgCache struct {
	DB *sql.DB
}

// NewPGCache constructs a Postgres-backed Cache over the ai_cache table.
func NewPGCache(db *sql.DB) Cache {
	return &pgCache{DB: db}
}

func (c *pgCache) Get(ctx context.Context, key string, now time.Time) (json.RawMessage, bool, error) {
	var raw []byte
	err := c.DB.QueryRowContext(ctx, `
SELECT response FROM ai_cache WHERE cache_key = $1 AND expires_at > $2`, key, now).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return json.RawMessage(raw), true, nil
}

func (c *pgCache) Put(ctx context.Context, key string, op Operation, value json.RawMessage, now, expiresAt time.Time) error {
	_, err := c.DB.ExecContext(ctx, `
INSERT INTO ai_cache (cache_key, operation, response, created_at, expires_at)
VALUES ($1, $2, $3::jsonb, $4, $5)
ON CONFLICT (cache_key) DO UPDATE SET
    operation = EXCLUDED.operation,
    response = EXCLUDED.response,
    created_at = EXCLUDED.created_at,
    expires_at = EXCLUDED.expires_at`, key, string(op), string(value), now, expiresAt)
	return err
}

func (c *pgCache) Purge(ctx context.Context, now time.Time) (int, error) {
	res, err := c.DB.ExecContext(ctx, `DELETE FROM ai_cache WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
