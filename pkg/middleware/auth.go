package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/models"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/tokens"
)

const identityKey = "identity"

// Verifier is the minimal interface the middleware depends on.
type Verifier interface {
	Validate(ctx context.Context, raw string) (models.Identity, error)
}

// AuthMiddleware verifies the Bearer token and stores the identity on the
// context. Every failure is the same generic 401.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokens.ExtractBearer(c.GetHeader("Authorization"))
		if raw == "" {
			abortUnauthorized(c)
			return
		}
		id, err := ver.Validate(c.Request.Context(), raw)
		if err != nil {
			abortUnauthorized(c)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			abortUnauthorized(c)
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Forbidden"})
	}
}

// IdentityFrom returns the identity set by AuthMiddleware.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
}
