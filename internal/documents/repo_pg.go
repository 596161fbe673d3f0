package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"resume-builder/internal/content"
	"resume-builder/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, kind, title, content, template_id, status, version, is_deleted, deleted_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc       Document
		kind      string
		status    string
		raw       []byte
		deletedAt sql.NullTime
	)
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&kind,
		&doc.Title,
		&raw,
		&doc.TemplateID,
		&status,
		&doc.Version,
		&doc.IsDeleted,
		&deletedAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.Kind = content.Kind(kind)
	doc.Status = Status(status)
	doc.Content = raw
	if deletedAt.Valid {
		doc.DeletedAt = &deletedAt.Time
	}
	return doc, nil
}

// Create inserts the document row and its first snapshot in one transaction.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const insertDoc = `
INSERT INTO documents (id, user_id, kind, title, content, template_id, status, version, is_deleted, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, false, $9, $10)`

	return db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertDoc,
			doc.ID,
			doc.UserID,
			string(doc.Kind),
			doc.Title,
			string(doc.Content),
			doc.TemplateID,
			string(doc.Status),
			doc.Version,
			doc.CreatedAt,
			doc.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		return insertVersion(ctx, tx, doc)
	})
}

func (r *PGRepo) Get(ctx context.Context, userID, id string) (Document, error) {
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE id = $1 AND user_id = $2 AND is_deleted = false`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (r *PGRepo) List(ctx context.Context, userID string, filter ListFilter) ([]Document, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND is_deleted = false
  AND ($2 = '' OR kind = $2)
  AND ($3 = '' OR status = $3)
ORDER BY updated_at DESC, id DESC
LIMIT $4 OFFSET $5`

	rows, err := r.DB.QueryContext(ctx, query, userID, string(filter.Kind), string(filter.Status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Update is the optimistic concurrency guard: a conditional UPDATE on the version
// column followed by the snapshot insert, inside a single transaction.
func (r *PGRepo) Update(ctx context.Context, userID, id string, expectedVersion int, patch Patch, now time.Time) (Document, error) {
	query := `
UPDATE documents SET
    title = COALESCE($4, title),
    content = COALESCE($5::jsonb, content),
    template_id = COALESCE($6, template_id),
    status = COALESCE($7, status),
    version = version + 1,
    updated_at = $8
WHERE id = $1 AND user_id = $2 AND version = $3 AND is_deleted = false
RETURNING ` + documentColumns

	var title, raw, templateID, status sql.NullString
	if patch.Title != nil {
		title = sql.NullString{String: *patch.Title, Valid: true}
	}
	if patch.Content != nil {
		raw = sql.NullString{String: string(patch.Content), Valid: true}
	}
	if patch.TemplateID != nil {
		templateID = sql.NullString{String: *patch.TemplateID, Valid: true}
	}
	if patch.Status != nil {
		status = sql.NullString{String: string(*patch.Status), Valid: true}
	}

	var updated Document
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		doc, err := scanDocument(tx.QueryRowContext(ctx, query, id, userID, expectedVersion, title, raw, templateID, status, now))
		if errors.Is(err, sql.ErrNoRows) {
			return classifyMiss(ctx, tx, userID, id)
		}
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := insertVersion(ctx, tx, doc); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	return updated, nil
}

// classifyMiss tells a stale version apart from a missing document after the guarded UPDATE matched nothing.
func classifyMiss(ctx context.Context, tx *sql.Tx, userID, id string) error {
	const query = `SELECT version FROM documents WHERE id = $1 AND user_id = $2 AND is_deleted = false`
	var current int
	err := tx.QueryRowContext(ctx, query, id, userID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check document version: %w", err)
	}
	return ErrConflict
}

func insertVersion(ctx context.Context, tx *sql.Tx, doc Document) error {
	const query = `
INSERT INTO document_versions (document_id, version, title, content, created_at)
VALUES ($1, $2, $3, $4::jsonb, $5)`
	if _, err := tx.ExecContext(ctx, query, doc.ID, doc.Version, doc.Title, string(doc.Content), doc.UpdatedAt); err != nil {
		return fmt.Errorf("insert document version: %w", err)
	}
	return nil
}

func (r *PGRepo) SoftDelete(ctx context.Context, userID, id string, now time.Time) error {
	const query = `
UPDATE documents SET is_deleted = true, deleted_at = $3, updated_at = $3
WHERE id = $1 AND user_id = $2 AND is_deleted = false`
	res, err := r.DB.ExecContext(ctx, query, id, userID, now)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ListVersions(ctx context.Context, userID, id string) ([]Version, error) {
	if err := r.ensureLive(ctx, userID, id); err != nil {
		return nil, err
	}
	const query = `
SELECT document_id, version, title, content, created_at
FROM document_versions
WHERE document_id = $1
ORDER BY version DESC`
	rows, err := r.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := make([]Version, 0)
	for rows.Next() {
		var v Version
		var raw []byte
		if err := rows.Scan(&v.DocumentID, &v.Version, &v.Title, &raw, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.Content = raw
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (r *PGRepo) GetVersion(ctx context.Context, userID, id string, version int) (Version, error) {
	if err := r.ensureLive(ctx, userID, id); err != nil {
		return Version{}, err
	}
	const query = `
SELECT document_id, version, title, content, created_at
FROM document_versions
WHERE document_id = $1 AND version = $2`
	var v Version
	var raw []byte
	err := r.DB.QueryRowContext(ctx, query, id, version).Scan(&v.DocumentID, &v.Version, &v.Title, &raw, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Version{}, ErrVersionNotFound
		}
		return Version{}, err
	}
	v.Content = raw
	return v, nil
}

func (r *PGRepo) Reassign(ctx context.Context, fromUserID, toUserID string, now time.Time) (int, error) {
	const query = `
UPDATE documents SET user_id = $2, updated_at = $3
WHERE user_id = $1 AND is_deleted = false`
	res, err := r.DB.ExecContext(ctx, query, fromUserID, toUserID, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *PGRepo) SoftDeleteAll(ctx context.Context, userID string, now time.Time) (int, error) {
	const query = `
UPDATE documents SET is_deleted = true, deleted_at = $2, updated_at = $2
WHERE user_id = $1 AND is_deleted = false`
	res, err := r.DB.ExecContext(ctx, query, userID, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *PGRepo) ensureLive(ctx context.Context, userID, id string) error {
	const query = `SELECT 1 FROM documents WHERE id = $1 AND user_id = $2 AND is_deleted = false`
	var one int
	err := r.DB.QueryRowContext(ctx, query, id, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
