package http

import (
	"time"

	"sniperok/internal/http/handlers"
	"sniperok/internal/http/middleware"
	"sniperok/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

// Deps is everything the router needs; main builds it once.
type Deps struct {
	Handler       *handlers.Handler
	Health        *handlers.HealthHandler
	Hub           *ws.Hub
	Auth          middleware.IdentityParser
	Redis         *redis.Client
	AllowedOrigin string

	APIRateLimit   int
	APIRateWindow  time.Duration
	GameRateLimit  int
	GameRateWindow time.Duration
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.CORS(d.AllowedOrigin))

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// realtime rooms; the token travels in the query string
	r.GET("/ws", ws.HandleWS(d.Hub, d.Auth, d.AllowedOrigin))

	limiter := middleware.NewRateLimiter(d.Redis)
	v1 := r.Group("/api/v1")
	v1.Use(middleware.APIRateLimit(limiter, d.APIRateLimit, d.APIRateWindow))
	registerAPIRoutes(v1, d.Handler, middleware.JWT(d.Auth), limiter.ByUser(d.GameRateLimit, d.GameRateWindow))
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, auth, gameRL gin.HandlerFunc) {
	api.GET("/weapons", h.ListWeapons)
	api.GET("/leaderboard", h.GetLeaderboard)
	api.GET("/leaderboard/me", auth, h.GetMyRank)

	me := api.Group("/me", auth)
	{
		me.GET("", h.Me)
		me.GET("/audit", h.MyAudit)
	}

	games := api.Group("/games", auth)
	{
		games.GET("", h.ListGames)
		games.POST("/new", gameRL, h.CreateGame)
		games.GET("/:id", h.GetGame)
		games.PUT("/:id", gameRL, h.PlayTurn)
		games.DELETE("/:id", h.DeleteGame)
		games.POST("/:id/join", gameRL, h.JoinGame)
		games.POST("/:id/round", gameRL, h.NextRound)
		games.PUT("/:id/round/status", gameRL, h.UpdateRoundStatus)
		games.GET("/:id/round/:seq", h.RoundScore)
		games.PATCH("/:id/status", h.RefreshStatus)
		games.GET("/:id/summary", h.Summary)
	}

	buddies := api.Group("/buddies", auth)
	{
		buddies.GET("", h.ListBuddies)
		buddies.POST("", h.AddBuddy)
		buddies.DELETE("", h.DeleteBuddy)
	}

	boosts := api.Group("/boosts", auth)
	{
		boosts.GET("", h.ListBoosts)
		boosts.POST("/:type", h.BuyBoost)
		boosts.DELETE("/:type", h.SellBoost)
	}
}
