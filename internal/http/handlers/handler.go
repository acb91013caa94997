package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"sniperok/internal/domain"
	"sniperok/internal/game"
	"sniperok/internal/http/middleware"
	"sniperok/internal/logger"

	"github.com/gin-gonic/gin"
)

// GameStore is implemented by repository.GameRepository.
type GameStore interface {
	CreateGame(ctx context.Context, isPublic bool, minPlayers, maxRounds int, startTime time.Time, userID string) (int64, bool)
	GetGameDetail(ctx context.Context, gameID int64) *domain.GameDetail
	GetPlayerSequence(ctx context.Context, gameID int64, userID string) *domain.PlayerSequence
	JoinGame(ctx context.Context, gameID int64, userID string) bool
	PlayTurn(ctx context.Context, gameID int64, userID string, roundSeq int, weaponCode string, responseTimeMillis int) bool
	UpdateCurrentRoundStatus(ctx context.Context, gameID int64, status domain.Status) bool
	RefreshGameStatus(ctx context.Context, detail *domain.GameDetail) domain.Status
	NextRound(ctx context.Context, gameID int64) *domain.GameDetail
	GetRoundScore(ctx context.Context, gameID int64, roundSeq int) *domain.RoundScore
	GetGameSummary(ctx context.Context, gameID int64) *domain.GameSummary
	DeleteGame(ctx context.Context, gameID int64) bool
	ListGames(ctx context.Context, userID string) ([]domain.GameListItem, error)
}

// BoostStore is implemented by repository.BoostRepository.
type BoostStore interface {
	ListUserBoosts(ctx context.Context, userID string) ([]domain.UserBoost, error)
	Buy(ctx context.Context, userID, boostType string, qty int) error
	Sell(ctx context.Context, userID, boostType string, qty int) error
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	Rank(ctx context.Context, userID string) (rank, snaps int, err error)
}

type UserStore interface {
	Upsert(ctx context.Context, id domain.Identity) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// AuditStore is implemented by repository.AuditRepository.
type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.AuditLog, error)
}

// BuddyStore is implemented by repository.BuddyRepository.
type BuddyStore interface {
	Add(ctx context.Context, userID, buddyName string) error
	List(ctx context.Context, username string) ([]domain.Buddy, error)
	Delete(ctx context.Context, userID, playerName, buddyName string) error
}

type WeaponStore interface {
	List(ctx context.Context) ([]domain.Weapon, error)
	Exists(ctx context.Context, code string) (bool, error)
	VictoryTable(ctx context.Context) (*game.VictoryTable, error)
}

// Broadcaster is the realtime side channel, implemented by ws.Hub.
type Broadcaster interface {
	PublishGame(gameID int64, msg domain.Message)
	RoomSize(room string) int
}

type Handler struct {
	Games   GameStore
	Boosts  BoostStore
	Users   UserStore
	Weapons WeaponStore
	Audit   AuditStore
	Buddies BuddyStore
	Hub     Broadcaster
}

func NewHandler(games GameStore, boosts BoostStore, users UserStore, weapons WeaponStore, audit AuditStore, buddies BuddyStore, hub Broadcaster) *Handler {
	return &Handler{
		Games:   games,
		Boosts:  boosts,
		Users:   users,
		Weapons: weapons,
		Audit:   audit,
		Buddies: buddies,
		Hub:     hub,
	}
}

// identity извлекает пользователя из контекста Gin, отвечая 401 если его нет
func identity(c *gin.Context) (domain.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		logger.Warn("user not logged in", "path", c.FullPath())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not logged in"})
		return domain.Identity{}, false
	}
	return id, true
}

// ensureUser mirrors the identity into the user table before game writes.
func (h *Handler) ensureUser(c *gin.Context, id domain.Identity) bool {
	if err := h.Users.Upsert(c.Request.Context(), id); err != nil {
		logger.Error("user upsert failed", "user_id", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error occurred"})
		return false
	}
	return true
}

func positiveParam(c *gin.Context, name string) (int64, bool) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return n, true
}

// loadGame parses :id and loads the game, answering 400/404 itself.
func (h *Handler) loadGame(c *gin.Context) (*domain.GameDetail, bool) {
	gameID, ok := positiveParam(c, "id")
	if !ok {
		return nil, false
	}
	d := h.Games.GetGameDetail(c.Request.Context(), gameID)
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return nil, false
	}
	return d, true
}

// requireCurator answers 403 unless the caller holds player seq 1.
func (h *Handler) requireCurator(c *gin.Context, d *domain.GameDetail, id domain.Identity) bool {
	ps := h.Games.GetPlayerSequence(c.Request.Context(), d.GameID, id.UserID)
	if ps == nil || ps.PlayerSeq != 1 {
		logger.Warn("not the game curator", "game_id", d.GameID, "user_id", id.UserID, "curator", d.Curator)
		c.JSON(http.StatusForbidden, gin.H{"error": "not the game curator"})
		return false
	}
	return true
}

// audit records a curator action with the request's origin. Failures are
// logged and never fail the request.
func (h *Handler) audit(c *gin.Context, userID, action string, details map[string]any) {
	err := h.Audit.Create(c.Request.Context(), &domain.AuditLog{
		UserID:    userID,
		Action:    action,
		Category:  domain.AuditCategoryGame,
		Details:   details,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "user_id", userID)
	}
}

func (h *Handler) publish(gameID int64, t domain.MessageType, sender, text string) {
	h.Hub.PublishGame(gameID, domain.Message{
		Type:   t,
		Sender: sender,
		GameID: strconv.FormatInt(gameID, 10),
		Text:   text,
	})
}
