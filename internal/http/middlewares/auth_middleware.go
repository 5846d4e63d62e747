package middlewares

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alexroche/boutique/internal/auth"
	"github.com/alexroche/boutique/internal/domain/user"
	"github.com/alexroche/boutique/internal/repo/postgres"
	"github.com/gin-gonic/gin"
)

// Small interfaces so tests can fake both collaborators.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// Identity is the per-request resolved caller. It is rebuilt from the store
// on every request and discarded when the request ends.
type Identity struct {
	ID    string
	Email string
	Role  string
}

func (i Identity) IsAdmin() bool {
	return i.Role == user.RoleAdmin
}

type AuthMiddleware struct {
	codec      TokenVerifier
	users      UserGetter
	cookieName string
}

func NewAuthMiddleware(codec TokenVerifier, users UserGetter, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		codec:      codec,
		users:      users,
		cookieName: cookieName,
	}
}

const ctxIdentityKey = "auth.identity"

// RequireSession extracts the session cookie, verifies it, and resolves the
// caller against the store. The role is re-read from the stored record
// rather than trusted from the token, so a role change takes effect on the
// very next request without a re-login.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(m.cookieName)

		if err != nil || raw == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing session token")
			return
		}

		claims, err := m.codec.Verify(raw)

		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "Session token has expired")
				return
			}

			abortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Session token is invalid")
			return
		}

		lookupCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := m.users.GetByID(lookupCtx, claims.UserID)

		if err != nil {
			if errors.Is(err, postgres.ErrUserNotFound) {
				// deleted after the token was issued
				abortWithError(c, http.StatusUnauthorized, "USER_NOT_FOUND", "Account no longer exists")
				return
			}

			abortWithError(c, http.StatusInternalServerError, "SERVER_ERROR", "Could not resolve session")
			return
		}

		SetIdentity(c, Identity{
			ID:    u.ID,
			Email: u.Email,
			Role:  u.Role,
		})

		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// SetIdentity attaches the resolved caller to the request context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(ctxIdentityKey, id)
}

// IdentityFromContext returns the identity attached by RequireSession.
func IdentityFromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)

	if !ok {
		return Identity{}, false
	}

	id, ok := v.(Identity)

	return id, ok
}
