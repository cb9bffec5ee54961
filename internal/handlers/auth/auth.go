// Package auth wires the authentication endpoints: register, login, token
// refresh/rotation, logout, password change and the admin user listing.
package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"authd/internal/password"
	"authd/internal/storage"
	"authd/internal/token"
)

var (
	logger = log.With().Str("component", "auth-handlers").Logger()
)

type Handlers struct {
	users   *storage.UserStore
	tokens  *token.Service
	hasher  password.Hasher
	limiter *storage.LoginLimiter
}

func New(users *storage.UserStore, tokens *token.Service, hasher password.Hasher, limiter *storage.LoginLimiter) *Handlers {
	return &Handlers{
		users:   users,
		tokens:  tokens,
		hasher:  hasher,
		limiter: limiter,
	}
}

func (h *Handlers) RegisterHandlers(rg *gin.RouterGroup) {
	authRoutes := rg.Group("/auth")
	{
		authRoutes.POST("/register", h.handleRegister)
		authRoutes.POST("/login", h.handleLogin)
		authRoutes.POST("/refresh", h.handleRefresh)
		authRoutes.POST("/logout", h.handleLogout)
		authRoutes.POST("/logout-all", h.RequireUser(), h.handleLogoutAll)
		authRoutes.POST("/change-password", h.RequireUser(), h.handleChangePassword)
		authRoutes.GET("/me", h.RequireUser(), h.handleMe)
	}

	userRoutes := rg.Group("/users")
	{
		userRoutes.GET("", h.RequireUser(), h.RequireAdmin(), h.handleListUsers)
	}
}

// responseTokenError maps token service failures to HTTP responses. Revoked
// and invalid tokens get the same 401 treatment but distinct log lines.
func responseTokenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, token.ErrTokenRevoked):
		logger.Info().Msg("Rejected revoked refresh token")
		c.String(http.StatusUnauthorized, "Revoked token")
	case errors.Is(err, token.ErrWrongTokenType):
		c.String(http.StatusUnauthorized, "Wrong token type")
	case errors.Is(err, token.ErrInvalidToken):
		c.String(http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, token.ErrUserNotFound):
		c.String(http.StatusUnauthorized, "User not found")
	default:
		// Store or directory I/O failure, retryable by the caller.
		logger.Error().Err(err).Msg("Backend error during token operation")
		c.String(http.StatusInternalServerError, "Backend error")
	}
}
