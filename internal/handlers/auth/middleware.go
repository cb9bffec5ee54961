package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"authd/internal/models"
)

const userContextKey = "authd/user"

// RequireUser authenticates the request with a Bearer access token and puts
// the resolved user into the gin context.
func (h *Handlers) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.String(http.StatusUnauthorized, "Missing bearer token")
			c.Abort()
			return
		}

		user, err := h.tokens.ResolveAccess(c.Request.Context(), raw)
		if err != nil {
			responseTokenError(c, err)
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAdmin must run after RequireUser.
func (h *Handlers) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			c.String(http.StatusForbidden, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user resolved by RequireUser, nil outside of an
// authenticated request.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
