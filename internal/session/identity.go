// Package session carries the authenticated caller through a request.
package session

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ayurcare/clinic-api/internal/model"
)

const contextKey = "session.identity"

// Identity is the caller resolved from a valid bearer token.
type Identity struct {
	UserID   uuid.UUID  `json:"user_id"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	Role     model.Role `json:"role"`
	// TokenID is the jti of the presented token, used for sign-out.
	TokenID   string `json:"-"`
	ExpiresAt int64  `json:"expires_at"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == model.RoleAdmin
}

// Set stores the identity on the request context.
func Set(c *gin.Context, id *Identity) {
	c.Set(contextKey, id)
}

// FromGin returns the identity for the request, or nil when anonymous.
func FromGin(c *gin.Context) *Identity {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	id, _ := v.(*Identity)
	return id
}
