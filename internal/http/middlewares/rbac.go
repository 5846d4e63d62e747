package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin gates an endpoint on the admin role. It must be mounted
// strictly after RequireSession; without an identity the request is treated
// as unauthenticated, not forbidden.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)

		if !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing identity context")
			return
		}

		if !identity.IsAdmin() {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Admin role required")
			return
		}

		c.Next()
	}
}
