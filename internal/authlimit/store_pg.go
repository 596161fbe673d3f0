package authlimit

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Store over the auth_attempts table.
func NewPGStore(db *sql.DB) Store {
	return &pgStore{DB: db}
}

func (s *pgStore) Peek(ctx context.Context, key string, now time.Time) (Window, error) {
	var w Window
	err := s.DB.QueryRowContext(ctx, `
SELECT count, window_start, window_end FROM auth_attempts WHERE attempt_key = $1 AND window_end > $2`,
		key, now).Scan(&w.Count, &w.Start, &w.End)
	if errors.Is(err, sql.ErrNoRows) {
		return Window{}, nil
	}
	if err != nil {
		return Window{}, err
	}
	return w, nil
}

func (s *pgStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration) (Window, error) {
	var w Window
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO auth_attempts (attempt_key, count, window_start, window_end)
VALUES ($1, 1, $2, $3)
ON CONFLICT (attempt_key) DO UPDATE SET
    count        = CASE WHEN auth_attempts.window_end <= $2 THEN 1 ELSE auth_attempts.count + 1 END,
    window_start = CASE WHEN auth_attempts.window_end <= $2 THEN $2 ELSE auth_attempts.window_start END,
    window_end   = CASE WHEN auth_attempts.window_end <= $2 THEN $3 ELSE auth_attempts.window_end END
RETURNING count, window_start, window_end`,
		key, now, now.Add(window)).Scan(&w.Count, &w.Start, &w.End)
	if err != nil {
		return Window{}, err
	}
	return w, nil
}

func (s *pgStore) Reset(ctx context.Context, key string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM auth_attempts WHERE attempt_key = $1`, key)
	return err
}

func (s *pgStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM auth_attempts WHERE window_end <= $1`, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
