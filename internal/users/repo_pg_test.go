package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	repo := &PGRepo{DB: db}
	err = repo.Create(context.Background(), User{ID: "u1", Email: "a@b.c", Plan: PlanFree, Provider: ProviderPassword})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestPGRepoGetByEmailIsCaseInsensitive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "picture_url", "password_hash", "plan", "provider", "created_at", "updated_at"}).
		AddRow("u1", "Jane@Example.com", nil, nil, "hash", "pro", "password", now, now)
	mock.ExpectQuery(`WHERE lower\(email\) = lower\(\$1\)`).WithArgs("jane@example.com").WillReturnRows(rows)
	mock.ExpectQuery("FROM users WHERE id").WithArgs("missing").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &PGRepo{DB: db}
	user, err := repo.GetByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if user.Plan != "pro" || user.PasswordHash != "hash" || user.FullName != "" {
		t.Fatalf("unexpected user %+v", user)
	}
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
