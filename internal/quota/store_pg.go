package quota

import (
	"context"
	"database/sql"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed quota store.
func NewPGStore(db *sql.DB) Store {
	return &pgStore{DB: db}
}

// upsertUsage opens, rolls or increments the window in one statement.
// $2 is now, $3 the next period end, $4..$6 the increments.
const upsertUsage = `
INSERT INTO ai_quotas (user_id, operation_count, token_count, total_cost, period_start, period_end)
VALUES ($1, $4, $5, $6, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET
    operation_count = CASE WHEN ai_quotas.period_end <= $2 THEN $4 ELSE ai_quotas.operation_count + $4 END,
    token_count     = CASE WHEN ai_quotas.period_end <= $2 THEN $5 ELSE ai_quotas.token_count + $5 END,
    total_cost      = CASE WHEN ai_quotas.period_end <= $2 THEN $6 ELSE ai_quotas.total_cost + $6 END,
    period_start    = CASE WHEN ai_quotas.period_end <= $2 THEN $2 ELSE ai_quotas.period_start END,
    period_end      = CASE WHEN ai_quotas.period_end <= $2 THEN $3 ELSE ai_quotas.period_end END
RETURNING user_id, operation_count, token_count, total_cost, period_start, period_end`

func (s *pgStore) Current(ctx context.Context, userID string, now time.Time, window time.Duration) (Usage, error) {
	return s.Increment(ctx, userID, Delta{}, now, window)
}

func (s *pgStore) Increment(ctx context.Context, userID string, delta Delta, now time.Time, window time.Duration) (Usage, error) {
	var u Usage
	err := s.DB.QueryRowContext(ctx, upsertUsage,
		userID, now, now.Add(window), delta.Operations, delta.Tokens, delta.Cost,
	).Scan(&u.UserID, &u.OperationCount, &u.TokenCount, &u.TotalCost, &u.PeriodStart, &u.PeriodEnd)
	if err != nil {
		return Usage{}, err
	}
	return u, nil
}
