package users

import "resume-builder/internal/shared/apperr"

var (
	ErrNotFound           = apperr.NotFound("user not found")
	ErrEmailTaken         = apperr.Conflict("email is already registered")
	ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")
)
