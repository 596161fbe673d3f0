package documents

import (
	"context"
	"time"
)

// Repo persists documents and their version history.
// Every read and write is scoped by user id and ignores soft-deleted rows.
type Repo interface {
	// Create stores a new document together with its version 1 snapshot.
	Create(ctx context.Context, doc Document) error
	Get(ctx context.Context, userID, id string) (Document, error)
	List(ctx context.Context, userID string, filter ListFilter) ([]Document, error)
	// Update applies patch only if the stored version equals expectedVersion, bumps the
	// version by one and appends a snapshot, all atomically. It returns ErrConflict on a
	// version mismatch and ErrNotFound when the document is missing, foreign or deleted.
	Update(ctx context.Context, userID, id string, expectedVersion int, patch Patch, now time.Time) (Document, error)
	SoftDelete(ctx context.Context, userID, id string, now time.Time) error
	ListVersions(ctx context.Context, userID, id string) ([]Version, error)
	GetVersion(ctx context.Context, userID, id string, version int) (Version, error)
	// Reassign moves every live document from one owner to another.
	Reassign(ctx context.Context, fromUserID, toUserID string, now time.Time) (int, error)
	SoftDeleteAll(ctx context.Context, userID string, now time.Time) (int, error)
}
