package handlers

import (
	"errors"
	"net/http"

	"sniperok/internal/domain"
	"sniperok/internal/logger"
	"sniperok/internal/repository"

	"github.com/gin-gonic/gin"
)

type AddBuddyRequest struct {
	BuddyName string `json:"buddyName" binding:"required"`
}

type DeleteBuddyRequest struct {
	PlayerName string `json:"playerName" binding:"required"`
	BuddyName  string `json:"buddyName" binding:"required"`
}

// registered answers 403 for guests; buddies are keyed by username.
func registered(c *gin.Context) (domain.Identity, bool) {
	id, ok := identity(c)
	if !ok {
		return domain.Identity{}, false
	}
	if !id.IsRegistered() || id.Username == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "registered users only"})
		return domain.Identity{}, false
	}
	return id, true
}

// addBuddy maps the store errors to 404/409/406 and reports success.
func (h *Handler) addBuddy(c *gin.Context, id domain.Identity, buddyName string) bool {
	if !h.ensureUser(c, id) {
		return false
	}
	err := h.Buddies.Add(c.Request.Context(), id.UserID, buddyName)
	switch {
	case err == nil:
		return true
	case errors.Is(err, repository.ErrBuddyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Buddy not found"})
	case errors.Is(err, repository.ErrBuddyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Buddy already exists"})
	case errors.Is(err, repository.ErrBuddySelf):
		c.JSON(http.StatusNotAcceptable, gin.H{"error": "Cannot buddy yourself"})
	default:
		logger.Error("add buddy failed", "user_id", id.UserID, "buddy", buddyName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
	}
	return false
}

// ListBuddies - GET /buddies. With ?action=add&buddyName=X the buddy is
// added first; that is the link welcome messages carry.
func (h *Handler) ListBuddies(c *gin.Context) {
	id, ok := registered(c)
	if !ok {
		return
	}

	if c.Query("action") == "add" {
		name := c.Query("buddyName")
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "buddyName required"})
			return
		}
		if !h.addBuddy(c, id, name) {
			return
		}
	}

	buddies, err := h.Buddies.List(c.Request.Context(), id.Username)
	if err != nil {
		logger.Error("list buddies failed", "user_id", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"buddies": buddies})
}

// AddBuddy - POST /buddies {buddyName}
func (h *Handler) AddBuddy(c *gin.Context) {
	id, ok := registered(c)
	if !ok {
		return
	}
	var req AddBuddyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if !h.addBuddy(c, id, req.BuddyName) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// DeleteBuddy - DELETE /buddies {playerName, buddyName}. Either side of the
// pair may remove it.
func (h *Handler) DeleteBuddy(c *gin.Context) {
	id, ok := registered(c)
	if !ok {
		return
	}
	var req DeleteBuddyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if id.Username != req.PlayerName && id.Username != req.BuddyName {
		logger.Warn("unauthorized buddy deletion", "player", req.PlayerName, "buddy", req.BuddyName, "as", id.Username)
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.Buddies.Delete(c.Request.Context(), id.UserID, req.PlayerName, req.BuddyName)
	if errors.Is(err, repository.ErrBuddyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Buddy not found"})
		return
	}
	if err != nil {
		logger.Error("delete buddy failed", "user_id", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
