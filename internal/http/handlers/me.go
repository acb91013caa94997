package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"sniperok/internal/domain"
	"sniperok/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

const defaultAuditLimit = 50

// Me - GET /me, the stored user with its boost balances. The user row is
// created on first use like every other authenticated write.
func (h *Handler) Me(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	if !h.ensureUser(c, id) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.GetByID(ctx, id.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		logger.Error("get user failed", "user_id", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}

	boosts, err := h.Boosts.ListUserBoosts(ctx, id.UserID)
	if err != nil {
		logger.Error("list boosts failed", "user_id", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	if boosts == nil {
		boosts = []domain.UserBoost{}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          user.ID,
		"username":    user.Username,
		"isAnonymous": user.Email == nil,
		"createdAt":   user.CreatedAt,
		"boosts":      boosts,
	})
}

// MyAudit - GET /me/audit?limit=N, the caller's boost and game history.
func (h *Handler) MyAudit(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	limit := defaultAuditLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	logs, err := h.Audit.ListByUser(c.Request.Context(), id.UserID, limit)
	if err != nil {
		logger.Error("list audit failed", "user_id", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": logs})
}
