package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type handleRefreshParams struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// handleRefresh rotates a refresh token: the presented token is consumed
// and a fresh access + refresh pair comes back.
func (h *Handlers) handleRefresh(c *gin.Context) {
	params := &handleRefreshParams{}

	if err := c.ShouldBindJSON(params); err != nil {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	_, pair, err := h.tokens.Refresh(c.Request.Context(), params.RefreshToken)
	if err != nil {
		responseTokenError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

type handleLogoutParams struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// handleLogout revokes the presented refresh token. Logging out twice with
// the same token is fine, the second revoke is a no-op.
func (h *Handlers) handleLogout(c *gin.Context) {
	params := &handleLogoutParams{}

	if err := c.ShouldBindJSON(params); err != nil {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	if err := h.tokens.RevokePresented(c.Request.Context(), params.RefreshToken); err != nil {
		responseTokenError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// handleLogoutAll revokes every outstanding refresh token of the calling
// user. Already issued access tokens live on until their own expiry.
func (h *Handlers) handleLogoutAll(c *gin.Context) {
	user := CurrentUser(c)

	if err := h.tokens.RevokeAll(c.Request.Context(), user.ID); err != nil {
		logger.Error().Err(err).Msg("Failed to revoke all refresh tokens")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	c.Status(http.StatusNoContent)
}
