package middleware

import (
	"net/http"
	"strings"

	"telemed/internal/auth"
	"telemed/internal/model"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Authentication verifies the bearer token and stores the resulting
// identity in the request context.
func Authentication(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				model.NewErrorResponse("Authorization header required", ""))
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		identity, err := provider.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				model.NewErrorResponse("Invalid token", ""))
			return
		}
		c.Set(identityKey, *identity)
		c.Next()
	}
}

// IdentityFrom returns the verified identity set by Authentication.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}

// RequireEmailVerified rejects callers whose email is not verified.
func RequireEmailVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok || !identity.EmailVerified {
			c.AbortWithStatusJSON(http.StatusForbidden,
				model.NewErrorResponse("Email verification required", ""))
			return
		}
		c.Next()
	}
}

// RequireRoles rejects callers whose role claim is not one of roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if ok {
			for _, role := range roles {
				if identity.Role == role {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden,
			model.NewErrorResponse("Insufficient role", ""))
	}
}
