package export

import "resume-builder/internal/shared/apperr"

var (
	ErrNotFound      = apperr.NotFound("export not found")
	ErrNotCancelable = apperr.Conflict("export already finished")
	ErrNotReady      = apperr.Conflict("export is not ready for download")
)
