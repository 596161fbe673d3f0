package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/auth"
)

func newTestService() *Service {
	return NewService(NewMemoryRepo(), auth.NewPasswordHasher(bcrypt.MinCost))
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "Jane@Example.com", Password: "correct horse", FullName: " Jane "})
	require.NoError(t, err)
	require.Equal(t, PlanFree, user.Plan)
	require.Equal(t, ProviderPassword, user.Provider)
	require.Equal(t, "Jane", user.FullName)
	require.NotEqual(t, "correct horse", user.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "another one"})
	require.True(t, errors.Is(err, ErrEmailTaken))

	got, err := svc.Authenticate(ctx, "JANE@example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "jane@example.com", "wrong")
	require.True(t, errors.Is(err, ErrInvalidCredentials))
	_, err = svc.Authenticate(ctx, "nobody@example.com", "wrong")
	require.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestRegisterRejectsBadEmail(t *testing.T) {
	_, err := newTestService().Register(context.Background(), RegisterInput{Email: "Jane <jane@example.com>", Password: "password1"})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpsertFromGoogle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	g, err := svc.UpsertFromGoogle(ctx, "123", "g@example.com", "G", "https://pic")
	require.NoError(t, err)
	require.Equal(t, "google:123", g.ID)

	again, err := svc.UpsertFromGoogle(ctx, "123", "g@example.com", "G Renamed", "")
	require.NoError(t, err)
	require.Equal(t, g.CreatedAt, again.CreatedAt)
	require.Equal(t, "G Renamed", again.FullName)

	// A password account with the same email is reused.
	pw, err := svc.Register(ctx, RegisterInput{Email: "p@example.com", Password: "password1"})
	require.NoError(t, err)
	linked, err := svc.UpsertFromGoogle(ctx, "456", "P@example.com", "P", "")
	require.NoError(t, err)
	require.Equal(t, pw.ID, linked.ID)
}

func TestDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	user, err := svc.Register(ctx, RegisterInput{Email: "d@example.com", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID))
	_, err = svc.GetByID(ctx, user.ID)
	require.True(t, errors.Is(err, ErrNotFound))
	require.True(t, errors.Is(svc.Delete(ctx, user.ID), ErrNotFound))
}
