package auth

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"authd/internal/storage"
)

func (h *Handlers) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentUser(c))
}

// handleListUsers is the admin-only user listing with limit/offset paging
// and order_by like "username,-created_at".
func (h *Handlers) handleListUsers(c *gin.Context) {
	query := storage.ListQuery{
		OrderBy: c.Query("order_by"),
	}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.String(http.StatusBadRequest, "Invalid limit")
			return
		}
		query.Limit = n
	}

	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.String(http.StatusBadRequest, "Invalid offset")
			return
		}
		query.Offset = n
	}

	if v, ok := c.GetQuery("role"); ok {
		query.Role = &v
	}

	users, err := h.users.List(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotAllowed) {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		logger.Error().Err(err).Msg("Database error during user listing")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, users)
}
