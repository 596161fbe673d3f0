package documents

import "resume-builder/internal/shared/apperr"

var (
	ErrNotFound        = apperr.NotFound("document not found")
	ErrVersionNotFound = apperr.NotFound("document version not found")
	ErrConflict        = apperr.Conflict("document was modified by another request; reload and retry")
)
