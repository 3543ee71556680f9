package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ownerKey = "owner_ref"

// TokenVerifier turns a bearer token into the caller's owner reference.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's owner reference on the context.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please authenticate"})
			return
		}

		owner, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please authenticate"})
			return
		}

		c.Set(ownerKey, owner)
		c.Next()
	}
}

// OptionalAuth records the owner reference when a valid token is present
// and lets every request through.
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if owner, err := verifier.Verify(c.Request.Context(), token); err == nil {
				c.Set(ownerKey, owner)
			}
		}
		c.Next()
	}
}

// OwnerRef returns the authenticated caller, or "" when there is none.
func OwnerRef(c *gin.Context) string {
	return c.GetString(ownerKey)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
