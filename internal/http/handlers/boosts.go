package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"sniperok/internal/domain"
	"sniperok/internal/logger"
	"sniperok/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListBoosts - GET /boosts, every boost type with the caller's balance.
func (h *Handler) ListBoosts(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	boosts, err := h.Boosts.ListUserBoosts(c.Request.Context(), id.UserID)
	if err != nil {
		logger.Error("list boosts failed", "user_id", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	if boosts == nil {
		boosts = []domain.UserBoost{}
	}
	c.JSON(http.StatusOK, gin.H{"boosts": boosts})
}

// BuyBoost - POST /boosts/:type, swaps snaps for a playable boost.
func (h *Handler) BuyBoost(c *gin.Context) {
	h.convertBoost(c, "buy", h.Boosts.Buy)
}

// SellBoost - DELETE /boosts/:type, swaps a playable boost back to snaps.
func (h *Handler) SellBoost(c *gin.Context) {
	h.convertBoost(c, "sell", h.Boosts.Sell)
}

type convertFunc func(ctx context.Context, userID, boostType string, qty int) error

func (h *Handler) convertBoost(c *gin.Context, op string, convert convertFunc) {
	boostType := c.Param("type")
	if !domain.IsPlayableBoost(boostType) {
		logger.Warn("invalid boost type", "boost_type", boostType)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid boost type"})
		return
	}
	qty := 1
	if v := c.Query("quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity"})
			return
		}
		qty = n
	}

	id, ok := identity(c)
	if !ok {
		return
	}
	if !h.ensureUser(c, id) {
		return
	}

	err := convert(c.Request.Context(), id.UserID, boostType, qty)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": "ok"})
	case errors.Is(err, repository.ErrInsufficientBoosts):
		logger.Warn("not enough boosts", "op", op, "user_id", id.UserID, "boost_type", boostType, "quantity", qty)
		c.JSON(http.StatusNotAcceptable, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrInvalidBoostType), errors.Is(err, repository.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("boost conversion failed", "op", op, "user_id", id.UserID, "boost_type", boostType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
	}
}
