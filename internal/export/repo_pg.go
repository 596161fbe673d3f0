package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `id, user_id, document_id, document_version, template_id, status, attempts, storage_key, size_bytes, page_count, error, expires_at, created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var (
		job         Job
		status      string
		storageKey  sql.NullString
		sizeBytes   sql.NullInt64
		pageCount   sql.NullInt64
		errText     sql.NullString
		expiresAt   sql.NullTime
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.DocumentID,
		&job.DocumentVersion,
		&job.TemplateID,
		&status,
		&job.Attempts,
		&storageKey,
		&sizeBytes,
		&pageCount,
		&errText,
		&expiresAt,
		&job.CreatedAt,
		&job.UpdatedAt,
		&completedAt,
	); err != nil {
		return Job{}, err
	}
	job.Status = Status(status)
	job.StorageKey = storageKey.String
	job.SizeBytes = sizeBytes.Int64
	job.PageCount = int(pageCount.Int64)
	job.Error = errText.String
	if expiresAt.Valid {
		job.ExpiresAt = &expiresAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return job, nil
}

func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const q = `
INSERT INTO export_jobs (id, user_id, document_id, document_version, template_id, status, attempts, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.DB.ExecContext(ctx, q,
		job.ID,
		job.UserID,
		job.DocumentID,
		job.DocumentVersion,
		job.TemplateID,
		string(job.Status),
		job.Attempts,
		job.CreatedAt,
		job.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert export job: %w", err)
	}
	return nil
}

func (r *PGRepo) Get(ctx context.Context, userID, id string) (Job, error) {
	query := `SELECT ` + jobColumns + ` FROM export_jobs WHERE id = $1 AND user_id = $2`
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return job, nil
}

func (r *PGRepo) List(ctx context.Context, userID string, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + jobColumns + `
FROM export_jobs
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`
	return r.queryJobs(ctx, query, userID, limit)
}

// ClaimNext locks the oldest pending row, skipping rows other workers hold.
func (r *PGRepo) ClaimNext(ctx context.Context, now time.Time) (Job, bool, error) {
	query := `
UPDATE export_jobs
SET status = 'processing', attempts = attempts + 1, updated_at = $1
WHERE id = (
  SELECT id FROM export_jobs
  WHERE status = 'pending'
  ORDER BY created_at, id
  FOR UPDATE SKIP LOCKED
  LIMIT 1
)
RETURNING ` + jobColumns
	return claimed(scanJob(r.DB.QueryRowContext(ctx, query, now)))
}

func (r *PGRepo) Claim(ctx context.Context, id string, now time.Time) (Job, bool, error) {
	query := `
UPDATE export_jobs
SET status = 'processing', attempts = attempts + 1, updated_at = $2
WHERE id = $1 AND status = 'pending'
RETURNING ` + jobColumns
	return claimed(scanJob(r.DB.QueryRowContext(ctx, query, id, now)))
}

func claimed(job Job, err error) (Job, bool, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, false, nil
		}
		return Job{}, false, fmt.Errorf("claim export job: %w", err)
	}
	return job, true, nil
}

func (r *PGRepo) Complete(ctx context.Context, id string, res Result, now time.Time) (bool, error) {
	const q = `
UPDATE export_jobs
SET status = 'completed', storage_key = $2, size_bytes = $3, page_count = $4, expires_at = $5,
    error = NULL, completed_at = $6, updated_at = $6
WHERE id = $1 AND status = 'processing'`
	return affected(r.DB.ExecContext(ctx, q, id, res.StorageKey, res.SizeBytes, res.PageCount, res.ExpiresAt, now))
}

func (r *PGRepo) Fail(ctx context.Context, id, reason string, now time.Time) (bool, error) {
	const q = `
UPDATE export_jobs
SET status = 'failed', error = $2, updated_at = $3
WHERE id = $1 AND status = 'processing'`
	return affected(r.DB.ExecContext(ctx, q, id, reason, now))
}

func (r *PGRepo) Cancel(ctx context.Context, userID, id string, now time.Time) (Job, error) {
	query := `
UPDATE export_jobs
SET status = 'cancelled', updated_at = $3
WHERE id = $1 AND user_id = $2 AND status IN ('pending', 'processing')
RETURNING ` + jobColumns
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, id, userID, now))
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Job{}, fmt.Errorf("cancel export job: %w", err)
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM export_jobs WHERE id = $1 AND user_id = $2)`, id, userID,
	).Scan(&exists); err != nil {
		return Job{}, err
	}
	if !exists {
		return Job{}, ErrNotFound
	}
	return Job{}, ErrNotCancelable
}

func (r *PGRepo) ReclaimStale(ctx context.Context, staleBefore time.Time, maxAttempts int, reason string, now time.Time) (int, int, error) {
	const failQ = `
UPDATE export_jobs
SET status = 'failed', error = $3, updated_at = $4
WHERE status = 'processing' AND updated_at < $1 AND attempts >= $2`
	failed, err := rowCount(r.DB.ExecContext(ctx, failQ, staleBefore, maxAttempts, reason, now))
	if err != nil {
		return 0, 0, fmt.Errorf("fail stale export jobs: %w", err)
	}
	const requeueQ = `
UPDATE export_jobs
SET status = 'pending', updated_at = $3
WHERE status = 'processing' AND updated_at < $1 AND attempts < $2`
	requeued, err := rowCount(r.DB.ExecContext(ctx, requeueQ, staleBefore, maxAttempts, now))
	if err != nil {
		return 0, failed, fmt.Errorf("requeue stale export jobs: %w", err)
	}
	return requeued, failed, nil
}

func (r *PGRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + jobColumns + `
FROM export_jobs
WHERE status = 'completed' AND expires_at <= $1
ORDER BY expires_at
LIMIT $2`
	return r.queryJobs(ctx, query, now, limit)
}

func (r *PGRepo) MarkExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	const q = `
UPDATE export_jobs
SET status = 'expired', storage_key = NULL, updated_at = $2
WHERE id = $1 AND status = 'completed'`
	return affected(r.DB.ExecContext(ctx, q, id, now))
}

func (r *PGRepo) DeleteAllForUser(ctx context.Context, userID string) ([]Job, error) {
	query := `DELETE FROM export_jobs WHERE user_id = $1 RETURNING ` + jobColumns
	return r.queryJobs(ctx, query, userID)
}

func (r *PGRepo) queryJobs(ctx context.Context, query string, args ...any) ([]Job, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func affected(res sql.Result, err error) (bool, error) {
	n, err := rowCount(res, err)
	return n > 0, err
}

func rowCount(res sql.Result, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

var _ Repo = (*PGRepo)(nil)
