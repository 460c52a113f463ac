package httputil

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ayurcare/clinic-api/pkg/errors"
)

// BindJSON decodes the request body into dst. Field validation is left to
// the service layer.
func BindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return errors.BadRequest("invalid request body", err)
	}
	return nil
}

// UUIDParam parses a path parameter as a UUID.
func UUIDParam(c *gin.Context, name, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.BadRequest("invalid "+resource+" ID", err)
	}
	return id, nil
}

// Confirmed reports whether the caller passed ?confirm=true, the API form
// of an interactive confirmation prompt.
func Confirmed(c *gin.Context) bool {
	return c.Query("confirm") == "true"
}

// RequireConfirmation returns a 400 unless the request is confirmed.
func RequireConfirmation(c *gin.Context, action string) error {
	if Confirmed(c) {
		return nil
	}
	return errors.BadRequest(action+" requires confirmation: repeat the request with ?confirm=true", nil)
}
