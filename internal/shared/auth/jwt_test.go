package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	signer, err := NewSigner("secret", time.Hour, false)
	require.NoError(t, err)

	token, err := signer.Sign(Claims{Email: "a@example.com", Plan: "pro", RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	require.NoError(t, err)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID())
	require.Equal(t, "a@example.com", claims.Email)
	require.Equal(t, "pro", claims.Plan)
}

func TestSignerRejectsExpiredAndForeignTokens(t *testing.T) {
	signer, err := NewSigner("secret", time.Minute, false)
	require.NoError(t, err)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }

	token, err := signer.Sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = signer.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewSigner("other", time.Hour, false)
	require.NoError(t, err)
	fresh, err := other.Sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	require.NoError(t, err)
	signer.now = time.Now
	_, err = signer.Verify(fresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSignerRequiresSecretInProduction(t *testing.T) {
	_, err := NewSigner("", time.Hour, true)
	require.Error(t, err)

	_, err = NewSigner("", time.Hour, false)
	require.NoError(t, err)
}

func TestSignRequiresSubject(t *testing.T) {
	signer, err := NewSigner("secret", time.Hour, false)
	require.NoError(t, err)
	_, err = signer.Sign(Claims{})
	require.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	require.True(t, h.Verify("correct horse", hash))
	require.False(t, h.Verify("wrong", hash))
	require.False(t, h.Verify("correct horse", ""))
}
