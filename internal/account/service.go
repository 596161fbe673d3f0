package account

import (
	"context"
	"strings"

	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/users"
)

// DocumentOwner moves or removes every document of a user.
type DocumentOwner interface {
	TransferOwnership(ctx context.Context, fromUserID, toUserID string) (int, error)
	DeleteAllForUser(ctx context.Context, userID string) (int, error)
}

// ExportPurger deletes a user's export jobs and their blobs.
type ExportPurger interface {
	PurgeUser(ctx context.Context, userID string) (int, error)
}

type UserStore interface {
	GetByID(ctx context.Context, userID string) (users.User, error)
	Delete(ctx context.Context, userID string) error
}

type Service struct {
	Docs    DocumentOwner
	Exports ExportPurger
	Users   UserStore
}

type ClaimResult struct {
	MigratedDocuments int `json:"migratedDocuments"`
}

type DeleteResult struct {
	DeletedDocuments int `json:"deletedDocuments"`
	DeletedExports   int `json:"deletedExports"`
}

func NewService(docs DocumentOwner, exports ExportPurger, usersStore UserStore) *Service {
	return &Service{Docs: docs, Exports: exports, Users: usersStore}
}

func (s *Service) Profile(ctx context.Context, userID string) (users.User, error) {
	return s.Users.GetByID(ctx, userID)
}

// ClaimGuest moves a guest's documents to the signed-in user. Running it twice moves nothing the second time.
func (s *Service) ClaimGuest(ctx context.Context, guestUserID, userID string) (ClaimResult, error) {
	if strings.TrimSpace(guestUserID) == "" || strings.TrimSpace(userID) == "" {
		return ClaimResult{}, apperr.Validation("guest and user ids are required")
	}
	n, err := s.Docs.TransferOwnership(ctx, guestUserID, userID)
	if err != nil {
		return ClaimResult{}, err
	}
	telemetry.Info("account.guest_claimed", map[string]any{"user_id": userID, "documents": n})
	return ClaimResult{MigratedDocuments: n}, nil
}

// DeleteAccount removes exports and their blobs, soft-deletes documents, then drops the user row.
func (s *Service) DeleteAccount(ctx context.Context, userID string) (DeleteResult, error) {
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return DeleteResult{}, err
	}
	var res DeleteResult
	var err error
	if s.Exports != nil {
		if res.DeletedExports, err = s.Exports.PurgeUser(ctx, userID); err != nil {
			return DeleteResult{}, err
		}
	}
	if res.DeletedDocuments, err = s.Docs.DeleteAllForUser(ctx, userID); err != nil {
		return DeleteResult{}, err
	}
	if err := s.Users.Delete(ctx, userID); err != nil {
		return DeleteResult{}, err
	}
	telemetry.Info("account.deleted", map[string]any{
		"user_id":   userID,
		"documents": res.DeletedDocuments,
		"exports":   res.DeletedExports,
	})
	return res, nil
}
