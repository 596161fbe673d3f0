package scores

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"resume-builder/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const upsertCurrent = `
INSERT INTO scores (document_id, user_id, version, overall, dimensions, breakdown, suggestions, job_description_hash, calculated_at)
VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7::jsonb, $8, $9)
ON CONFLICT (document_id) DO UPDATE SET
    user_id = EXCLUDED.user_id,
    version = EXCLUDED.version,
    overall = EXCLUDED.overall,
    dimensions = EXCLUDED.dimensions,
    breakdown = EXCLUDED.breakdown,
    suggestions = EXCLUDED.suggestions,
    job_description_hash = EXCLUDED.job_description_hash,
    calculated_at = EXCLUDED.calculated_at`

const upsertHistory = `
INSERT INTO score_history (document_id, version, user_id, overall, dimensions, breakdown, suggestions, job_description_hash, calculated_at)
VALUES ($1, $3, $2, $4, $5::jsonb, $6::jsonb, $7::jsonb, $8, $9)
ON CONFLICT (document_id, version) DO UPDATE SET
    user_id = EXCLUDED.user_id,
    overall = EXCLUDED.overall,
    dimensions = EXCLUDED.dimensions,
    breakdown = EXCLUDED.breakdown,
    suggestions = EXCLUDED.suggestions,
    job_description_hash = EXCLUDED.job_description_hash,
    calculated_at = EXCLUDED.calculated_at`

func (r *PGRepo) Save(ctx context.Context, rec Record) error {
	dims, err := json.Marshal(rec.Score.Dimensions)
	if err != nil {
		return err
	}
	breakdown, err := json.Marshal(rec.Score.Breakdown)
	if err != nil {
		return err
	}
	suggestions, err := json.Marshal(rec.Score.Suggestions)
	if err != nil {
		return err
	}
	var jdHash sql.NullString
	if rec.JobDescriptionHash != "" {
		jdHash = sql.NullString{String: rec.JobDescriptionHash, Valid: true}
	}
	args := []any{
		rec.DocumentID,
		rec.UserID,
		rec.Version,
		rec.Score.Overall,
		string(dims),
		string(breakdown),
		string(suggestions),
		jdHash,
		rec.CalculatedAt,
	}
	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertCurrent, args...); err != nil {
			return fmt.Errorf("upsert score: %w", err)
		}
		if _, err := tx.ExecContext(ctx, upsertHistory, args...); err != nil {
			return fmt.Errorf("upsert score history: %w", err)
		}
		return nil
	})
}

func (r *PGRepo) Current(ctx context.Context, documentID string) (Record, error) {
	const query = `
SELECT document_id, user_id, version, overall, dimensions, breakdown, suggestions, job_description_hash, calculated_at
FROM scores
WHERE document_id = $1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotScored
	}
	return rec, err
}

func (r *PGRepo) History(ctx context.Context, documentID string) ([]Record, error) {
	const query = `
SELECT document_id, user_id, version, overall, dimensions, breakdown, suggestions, job_description_hash, calculated_at
FROM score_history
WHERE document_id = $1
ORDER BY version DESC`
	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec                          Record
		dims, breakdown, suggestions []byte
		jdHash                       sql.NullString
	)
	if err := row.Scan(
		&rec.DocumentID,
		&rec.UserID,
		&rec.Version,
		&rec.Score.Overall,
		&dims,
		&breakdown,
		&suggestions,
		&jdHash,
		&rec.CalculatedAt,
	); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(dims, &rec.Score.Dimensions); err != nil {
		return Record{}, fmt.Errorf("decode dimensions: %w", err)
	}
	if err := json.Unmarshal(breakdown, &rec.Score.Breakdown); err != nil {
		return Record{}, fmt.Errorf("decode breakdown: %w", err)
	}
	if err := json.Unmarshal(suggestions, &rec.Score.Suggestions); err != nil {
		return Record{}, fmt.Errorf("decode suggestions: %w", err)
	}
	rec.JobDescriptionHash = jdHash.String
	return rec, nil
}
