package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ayurcare/clinic-api/internal/session"
	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
	"github.com/ayurcare/clinic-api/pkg/httputil"
)

// Authenticator resolves a bearer token into a session identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*session.Identity, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate requires a valid bearer token and stores the identity on the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			httputil.AbortWithError(c, apperrors.Unauthorized(nil))
			return
		}

		identity, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			httputil.AbortWithError(c, err)
			return
		}

		session.Set(c, identity)
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is presented and
// otherwise lets the request through anonymously.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		identity, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("ignoring invalid bearer token")
			c.Next()
			return
		}

		session.Set(c, identity)
		c.Next()
	}
}

// RequireAdmin must run after Authenticate, which loads the role from the
// users table on every request.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := session.FromGin(c)
		if identity == nil {
			httputil.AbortWithError(c, apperrors.Unauthorized(nil))
			return
		}
		if !identity.IsAdmin() {
			httputil.AbortWithError(c, apperrors.Forbidden("Access denied. Admin privileges required.", nil))
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
