package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"sniperok/internal/domain"
	"sniperok/internal/game"
	"sniperok/internal/logger"

	"github.com/gin-gonic/gin"
)

type CreateGameRequest struct {
	IsPublic     bool `json:"isPublic"`
	MinPlayers   int  `json:"minPlayers" binding:"required,min=1"`
	MaxRounds    int  `json:"maxRounds" binding:"min=0"`
	StartSeconds int  `json:"startSeconds" binding:"min=0"`
}

type PlayTurnRequest struct {
	RoundSeq           int    `json:"roundSeq" binding:"required,min=1"`
	Weapon             string `json:"weapon" binding:"required"`
	ResponseTimeMillis int    `json:"responseTimeMillis" binding:"min=0"`
}

type RoundStatusRequest struct {
	Status domain.Status `json:"status"`
}

// ListGames - GET /games
func (h *Handler) ListGames(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	games, err := h.Games.ListGames(c.Request.Context(), id.UserID)
	if err != nil {
		logger.Error("list games failed", "user_id", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	if games == nil {
		games = []domain.GameListItem{}
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

// CreateGame - POST /games/new
func (h *Handler) CreateGame(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if !h.ensureUser(c, id) {
		return
	}

	startTime := time.Now().Add(time.Duration(req.StartSeconds) * time.Second)
	gameID, ok := h.Games.CreateGame(c.Request.Context(), req.IsPublic, req.MinPlayers, req.MaxRounds, startTime, id.UserID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	h.audit(c, id.UserID, domain.AuditActionGameCreate, map[string]any{
		"game_id":     gameID,
		"is_public":   req.IsPublic,
		"min_players": req.MinPlayers,
	})
	c.JSON(http.StatusCreated, gin.H{"gameId": gameID})
}

// GetGame - GET /games/:id, with the number of players connected to the game room.
func (h *Handler) GetGame(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}
	d, ok := h.loadGame(c)
	if !ok {
		return
	}
	connected := h.Hub.RoomSize(domain.GameRoomFor(d.GameID))
	d.Connected = &connected
	c.JSON(http.StatusOK, d)
}

// JoinGame - POST /games/:id/join. Joining again is harmless.
func (h *Handler) JoinGame(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	d, ok := h.loadGame(c)
	if !ok {
		return
	}
	if !h.ensureUser(c, id) {
		return
	}

	ctx := c.Request.Context()
	if !h.Games.JoinGame(ctx, d.GameID, id.UserID) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	ps := h.Games.GetPlayerSequence(ctx, d.GameID, id.UserID)
	if ps == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred, after joining"})
		return
	}

	h.publish(d.GameID, domain.MsgJoinGame, ps.Username, strconv.Itoa(ps.PlayerSeq))
	c.JSON(http.StatusOK, ps)
}

// PlayTurn - PUT /games/:id. The first weapon submitted for a round wins;
// later submissions are accepted and ignored.
func (h *Handler) PlayTurn(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	d, ok := h.loadGame(c)
	if !ok {
		return
	}
	var req PlayTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if req.RoundSeq > d.CurrentRound {
		c.JSON(http.StatusBadRequest, gin.H{"error": "round not started"})
		return
	}
	if req.RoundSeq < d.CurrentRound || d.CurrentRoundStatus == domain.StatusInactive || d.Status == domain.StatusInactive {
		c.JSON(http.StatusConflict, gin.H{"error": "round is over"})
		return
	}

	ctx := c.Request.Context()
	ps := h.Games.GetPlayerSequence(ctx, d.GameID, id.UserID)
	if ps == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a player in this game"})
		return
	}
	known, err := h.Weapons.Exists(ctx, req.Weapon)
	if err != nil {
		logger.Error("weapon lookup failed", "weapon", req.Weapon, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	if !known {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown weapon"})
		return
	}

	if !h.Games.PlayTurn(ctx, d.GameID, id.UserID, req.RoundSeq, req.Weapon, req.ResponseTimeMillis) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}

	h.publish(d.GameID, domain.MsgRoundPlayed, ps.Username, strconv.Itoa(req.RoundSeq))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteGame - DELETE /games/:id, curator only.
func (h *Handler) DeleteGame(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	d, ok := h.loadGame(c)
	if !ok {
		return
	}
	if !h.requireCurator(c, d, id) {
		return
	}

	if !h.Games.DeleteGame(c.Request.Context(), d.GameID) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	h.audit(c, id.UserID, domain.AuditActionGameDelete, map[string]any{"game_id": d.GameID, "status": d.Status.String()})
	h.publish(d.GameID, domain.MsgEventFromServer, "", "game deleted")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// NextRound - POST /games/:id/round, curator only.
func (h *Handler) NextRound(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	d, ok := h.loadGame(c)
	if !ok {
		return
	}
	if !h.requireCurator(c, d, id) {
		return
	}

	if err := game.CanAdvanceRound(d); err != nil {
		logger.Warn("round not advanced", "game_id", d.GameID, "round", d.CurrentRound,
			"max_rounds", d.MaxRounds, "round_status", d.CurrentRoundStatus, "reason", err)
		code := http.StatusTooEarly
		if errors.Is(err, game.ErrLastRound) {
			code = http.StatusConflict
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}

	next := h.Games.NextRound(c.Request.Context(), d.GameID)
	if next == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	if next.CurrentRound > d.CurrentRound {
		h.publish(d.GameID, domain.MsgNextRound, "", strconv.Itoa(next.CurrentRound))
	}
	c.JSON(http.StatusOK, next)
}

// RoundScore - GET /games/:id/round/:seq
func (h *Handler) RoundScore(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}
	gameID, ok := positiveParam(c, "id")
	if !ok {
		return
	}
	seq, ok := positiveParam(c, "seq")
	if !ok {
		return
	}

	score := h.Games.GetRoundScore(c.Request.Context(), gameID, int(seq))
	if score == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	c.JSON(http.StatusOK, score)
}

// UpdateRoundStatus - PUT /games/:id/round/status, players only.
func (h *Handler) UpdateRoundStatus(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	d, ok := h.loadGame(c)
	if !ok {
		return
	}
	var req RoundStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == domain.StatusUnknown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	ctx := c.Request.Context()
	if h.Games.GetPlayerSequence(ctx, d.GameID, id.UserID) == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a player in this game"})
		return
	}

	if !d.CurrentRoundStatus.CanAdvanceTo(req.Status) {
		logger.Warn("round status can't move back", "game_id", d.GameID, "from", d.CurrentRoundStatus, "to", req.Status)
		c.JSON(http.StatusNotAcceptable, gin.H{"error": "round status not updated"})
		return
	}
	if !h.Games.UpdateCurrentRoundStatus(ctx, d.GameID, req.Status) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	logger.Debug("round status updated", "game_id", d.GameID, "round", d.CurrentRound, "status", req.Status)

	after := h.Games.GetGameDetail(ctx, d.GameID)
	if after == nil {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	if d.Status != domain.StatusInactive && after.Status == domain.StatusInactive {
		h.publish(d.GameID, domain.MsgEventFromServer, "", "game over")
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "gameStatus": after.Status})
}

// RefreshStatus - PATCH /games/:id/status
func (h *Handler) RefreshStatus(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}
	d, ok := h.loadGame(c)
	if !ok {
		return
	}

	newStatus := h.Games.RefreshGameStatus(c.Request.Context(), d)
	if newStatus == domain.StatusUnknown {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return
	}
	if d.Status != domain.StatusInactive && newStatus == domain.StatusInactive {
		h.publish(d.GameID, domain.MsgEventFromServer, "", "game over")
	}
	c.JSON(http.StatusOK, gin.H{"newStatus": newStatus})
}

// Summary - GET /games/:id/summary
func (h *Handler) Summary(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}
	gameID, ok := positiveParam(c, "id")
	if !ok {
		return
	}
	summary := h.Games.GetGameSummary(c.Request.Context(), gameID)
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
