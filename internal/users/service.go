package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/auth"
)

type Service struct {
	Repo   Repo
	Hasher *auth.PasswordHasher
}

func NewService(repo Repo, hasher *auth.PasswordHasher) *Service {
	return &Service{Repo: repo, Hasher: hasher}
}

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// Register creates a password account on the free plan.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return User{}, err
	}
	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return User{}, apperr.Validation("invalid password", apperr.FieldError{Field: "password", Issue: err.Error()})
	}
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		Plan:         PlanFree,
		Provider:     ProviderPassword,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return s.Repo.GetByID(ctx, user.ID)
}

// Authenticate checks a password sign-in. Unknown emails and wrong passwords are indistinguishable.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.Repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if user.PasswordHash == "" || !s.Hasher.Verify(password, user.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// UpsertFromGoogle persists a Google identity. An existing account with the same email is reused.
func (s *Service) UpsertFromGoogle(ctx context.Context, subject, email, fullName, pictureURL string) (User, error) {
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(email) == "" {
		return User{}, errors.New("google subject and email are required")
	}
	existing, err := s.Repo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Provider != ProviderGoogle:
		return existing, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return User{}, err
	}
	return s.Repo.Upsert(ctx, User{
		ID:         "google:" + subject,
		Email:      strings.TrimSpace(email),
		FullName:   fullName,
		PictureURL: pictureURL,
		Plan:       PlanFree,
		Provider:   ProviderGoogle,
	})
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.Repo.Delete(ctx, userID)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("invalid email", apperr.FieldError{Field: "email", Issue: "must be a valid email address"})
	}
	return email, nil
}
