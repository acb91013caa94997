package handlers

import (
	"net/http"

	"sniperok/internal/logger"

	"github.com/gin-gonic/gin"
)

type WeaponResponse struct {
	Code  string   `json:"code"`
	Level int      `json:"level"`
	Beats []string `json:"beats"`
}

// ListWeapons - GET /weapons, every weapon with the weapons it defeats.
func (h *Handler) ListWeapons(c *gin.Context) {
	ctx := c.Request.Context()
	weapons, err := h.Weapons.List(ctx)
	if err != nil {
		logger.Error("list weapons failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	table, err := h.Weapons.VictoryTable(ctx)
	if err != nil {
		logger.Error("load victory table failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}

	out := make([]WeaponResponse, 0, len(weapons))
	for _, w := range weapons {
		out = append(out, WeaponResponse{Code: w.Code, Level: w.Level, Beats: table.BeatenBy(w.Code)})
	}
	c.JSON(http.StatusOK, gin.H{"weapons": out})
}
