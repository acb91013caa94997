package middleware

import (
	"net/http"
	"strings"

	"sniperok/internal/domain"
	"sniperok/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	identityKey = "identity"
	userIDKey   = "user_id"
)

// IdentityParser resolves a bearer token into an identity.
type IdentityParser interface {
	Parse(token string) (domain.Identity, error)
}

// JWT requires "Authorization: Bearer <token>" and stores the resolved
// identity in the gin context. Guests get anonymous tokens, so every
// caller past this point has a user id.
func JWT(auth IdentityParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not logged in"})
			return
		}

		id, err := auth.Parse(strings.TrimSpace(token))
		if err != nil {
			logger.Debug("rejected token", "path", c.FullPath(), "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(identityKey, id)
		c.Set(userIDKey, id.UserID)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by JWT.
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok && id.UserID != ""
}

// SetIdentity is used by tests that bypass token parsing.
func SetIdentity(c *gin.Context, id domain.Identity) {
	c.Set(identityKey, id)
	c.Set(userIDKey, id.UserID)
}
