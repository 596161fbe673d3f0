package scores

import (
	"time"

	"resume-builder/internal/scoring"
	"resume-builder/internal/shared/apperr"
)

var ErrNotScored = apperr.NotFound("document has not been scored")

// Record is a stored score for one document version.
type Record struct {
	DocumentID         string
	UserID             string
	Version            int
	Score              scoring.Score
	JobDescriptionHash string
	CalculatedAt       time.Time
}
