package users

import "context"

type Repo interface {
	// Create inserts a new user; a case-insensitive email clash returns ErrEmailTaken.
	Create(ctx context.Context, user User) error
	// Upsert inserts or refreshes the profile of an externally authenticated user.
	Upsert(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Delete(ctx context.Context, userID string) error
}
