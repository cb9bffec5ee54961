package auth

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/gin-gonic/gin"

	"authd/internal/models"
)

type handleRegisterParams struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
}

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{4,32}$`)
)

const (
	allowedSpecialChars = `!@#$%^&*()_+\-=[]{};':"\|,.<>/?`
	allAllowedChars     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" + allowedSpecialChars
)

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("Password must be at least 8 characters long.")
	}

	hasLower := false
	hasUpper := false
	hasSpecial := false

	for _, char := range password {
		if char >= 'a' && char <= 'z' {
			hasLower = true
		} else if char >= 'A' && char <= 'Z' {
			hasUpper = true
		} else if char >= '0' && char <= '9' {
			// digits are allowed but not required
		} else if strings.ContainsRune(allowedSpecialChars, char) {
			hasSpecial = true
		} else {
			// Character is not in any of the allowed groups
			return errors.New("Password contains characters that are not allowed.")
		}
	}

	if !hasLower || !hasUpper || !hasSpecial {
		return errors.New("Password must contain lowercase, uppercase and special characters.")
	}

	return nil
}

func (h *Handlers) handleRegister(c *gin.Context) {
	params := &handleRegisterParams{}

	if err := c.ShouldBindJSON(params); err != nil {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	if !usernameRegex.MatchString(params.Username) {
		c.String(http.StatusBadRequest, "Username must be 4-32 characters of letters, numbers or underscores")
		return
	}

	if err := validatePassword(params.Password); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	if params.Email != "" {
		if err := checkmail.ValidateFormat(params.Email); err != nil {
			c.String(http.StatusBadRequest, "Invalid email address")
			return
		}
	}

	existing, err := h.users.FindByUsername(c.Request.Context(), params.Username)
	if err != nil {
		logger.Error().Err(err).Msg("Database error during register")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}
	if existing != nil {
		c.String(http.StatusConflict, "User already exists")
		return
	}

	digest, err := h.hasher.Hash(params.Password)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		c.String(http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := &models.User{
		Username:       params.Username,
		HashedPassword: digest,
		Email:          params.Email,
		Role:           models.RoleGuest,
	}

	if err := h.users.Create(c.Request.Context(), user); err != nil {
		logger.Error().Err(err).Msg("Failed to create user")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusCreated, user)
}
