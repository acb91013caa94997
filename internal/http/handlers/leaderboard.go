package handlers

import (
	"net/http"

	"sniperok/internal/logger"

	"github.com/gin-gonic/gin"
)

const leaderboardSize = 100

// GetLeaderboard returns the top 100 users by snaps won
func (h *Handler) GetLeaderboard(c *gin.Context) {
	top, err := h.Boosts.Leaderboard(c.Request.Context(), leaderboardSize)
	if err != nil {
		logger.Error("leaderboard failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": top})
}

// GetMyRank returns the caller's position; 0 means no game won yet.
func (h *Handler) GetMyRank(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	rank, snaps, err := h.Boosts.Rank(c.Request.Context(), id.UserID)
	if err != nil {
		logger.Error("rank failed", "user_id", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get rank"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rank":  rank,
		"snaps": snaps,
	})
}
