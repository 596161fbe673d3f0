package scores

import "context"

// Repo stores the current score per document and a per-version history.
// Ownership is checked by the caller before any call.
type Repo interface {
	// Save upserts the current score and the history row for rec.Version.
	Save(ctx context.Context, rec Record) error
	Current(ctx context.Context, documentID string) (Record, error)
	// History returns stored scores newest version first.
	History(ctx context.Context, documentID string) ([]Record, error)
}
