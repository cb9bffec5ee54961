package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type handleLoginParams struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) handleLogin(c *gin.Context) {
	params := &handleLoginParams{}

	if err := c.ShouldBindJSON(params); err != nil {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	if h.limiter.Blocked(params.Username) {
		c.String(http.StatusTooManyRequests, "Too many failed login attempts, try again later")
		return
	}

	user, err := h.users.FindByUsername(c.Request.Context(), params.Username)
	if err != nil {
		logger.Error().Err(err).Msg("Database error during login")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	// Same generic message for unknown user and bad password, so the
	// response does not reveal which usernames exist.
	if user == nil || !h.hasher.Verify(params.Password, user.HashedPassword) {
		h.limiter.Failure(params.Username)
		c.String(http.StatusUnauthorized, "Invalid username or password")
		return
	}

	h.limiter.Reset(params.Username)

	pair, err := h.tokens.IssuePair(c.Request.Context(), user)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to issue token pair")
		c.String(http.StatusInternalServerError, "Failed to issue tokens")
		return
	}

	c.JSON(http.StatusOK, pair)
}
