package respond

import (
	"github.com/gin-gonic/gin"

	"resume-builder/internal/shared/apperr"
	"resume-builder/internal/shared/validate"
)

// BindJSON decodes and validates a request body. On failure it writes the
// validation envelope and returns false.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		FromError(c, apperr.Validation("invalid request body"))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		FromError(c, err)
		return false
	}
	return true
}
