package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type handleChangePasswordParams struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// handleChangePassword rehashes the password and invalidates every
// outstanding refresh token of the user.
func (h *Handlers) handleChangePassword(c *gin.Context) {
	params := &handleChangePasswordParams{}

	if err := c.ShouldBindJSON(params); err != nil {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	user := CurrentUser(c)

	if params.CurrentPassword == params.NewPassword {
		c.String(http.StatusBadRequest, "New password is same as current password")
		return
	}

	if !h.hasher.Verify(params.CurrentPassword, user.HashedPassword) {
		c.String(http.StatusBadRequest, "Current password incorrect")
		return
	}

	if err := validatePassword(params.NewPassword); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	digest, err := h.hasher.Hash(params.NewPassword)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		c.String(http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user.HashedPassword = digest
	if err := h.users.Save(c.Request.Context(), user); err != nil {
		logger.Error().Err(err).Msg("Failed to save user")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	// All sessions are out after a password change.
	if err := h.tokens.RevokeAll(c.Request.Context(), user.ID); err != nil {
		logger.Error().Err(err).Msg("Failed to revoke refresh tokens after password change")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	c.Status(http.StatusNoContent)
}
