package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var pgColumns = []string{"id", "user_id", "kind", "title", "content", "template_id", "status", "version", "is_deleted", "deleted_at", "created_at", "updated_at"}

func TestPGRepoUpdateCommitsSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	title := "New title"

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE documents SET").
		WithArgs("doc-1", "user-1", 3, "New title", nil, nil, nil, now).
		WillReturnRows(sqlmock.NewRows(pgColumns).AddRow(
			"doc-1", "user-1", "resume", "New title", []byte(`{}`), "classic", "draft", 4, false, nil, now.Add(-time.Hour), now,
		))
	mock.ExpectExec("INSERT INTO document_versions").
		WithArgs("doc-1", 4, "New title", "{}", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc, err := repo.Update(context.Background(), "user-1", "doc-1", 3, Patch{Title: &title}, now)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if doc.Version != 4 {
		t.Fatalf("expected version 4, got %d", doc.Version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateStaleVersionRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	title := "Stale"

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE documents SET").
		WithArgs("doc-1", "user-1", 3, "Stale", nil, nil, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(pgColumns))
	mock.ExpectQuery("SELECT version FROM documents").
		WithArgs("doc-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(4))
	mock.ExpectRollback()

	_, err = repo.Update(context.Background(), "user-1", "doc-1", 3, Patch{Title: &title}, time.Now())
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateMissingDocumentIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	status := StatusActive

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE documents SET").WillReturnRows(sqlmock.NewRows(pgColumns))
	mock.ExpectQuery("SELECT version FROM documents").
		WithArgs("doc-1", "user-2").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectRollback()

	_, err = repo.Update(context.Background(), "user-2", "doc-1", 1, Patch{Status: &status}, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateWritesFirstVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	doc := Document{
		ID: "doc-1", UserID: "user-1", Kind: "resume", Title: "CV", Content: []byte(`{}`),
		TemplateID: "classic", Status: StatusDraft, Version: 1, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("doc-1", "user-1", "resume", "CV", "{}", "classic", "draft", 1, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_versions").
		WithArgs("doc-1", 1, "CV", "{}", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := (&PGRepo{DB: db}).Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSoftDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("UPDATE documents SET is_deleted = true").
		WithArgs("doc-1", "user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = (&PGRepo{DB: db}).SoftDelete(context.Background(), "user-1", "doc-1", time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
