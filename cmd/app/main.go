package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sniperok/internal/config"
	"sniperok/internal/db"
	httpServer "sniperok/internal/http"
	"sniperok/internal/http/handlers"
	"sniperok/internal/http/middleware"
	"sniperok/internal/logger"
	"sniperok/internal/migrations"
	"sniperok/internal/repository"
	"sniperok/internal/service"
	"sniperok/internal/telemetry"
	"sniperok/internal/ws"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("server failed", "error", err)
	}
	logger.Info("server exited")
}

func run(ctx context.Context, cfg *config.Config) error {
	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		ServiceName: cfg.ServiceName,
		Version:     version,
		Endpoint:    cfg.TracingEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	if cfg.MigrateOnStart {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	dbPool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	rdb := middleware.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
	}

	jwtService := service.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	hub := ws.NewHub(ws.HubConfig{
		Welcome:       cfg.WelcomeMessage,
		EventRate:     rate.Limit(cfg.WSEventRate),
		EventBurst:    cfg.WSEventBurst,
		AnnounceJoins: cfg.WSAnnounceJoins,
	})

	weapons := repository.NewWeaponRepository(dbPool)
	games := repository.NewGameRepository(dbPool, weapons, otel.Tracer("sniperok/repository"), cfg.DefaultMaxRounds)
	h := handlers.NewHandler(
		games,
		repository.NewBoostRepository(dbPool),
		repository.NewUserRepository(dbPool),
		weapons,
		repository.NewAuditRepository(dbPool),
		repository.NewBuddyRepository(dbPool),
		hub,
	)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler:        h,
		Health:         handlers.NewHealthHandler(dbPool, rdb, hub, version),
		Hub:            hub,
		Auth:           jwtService,
		Redis:          rdb,
		AllowedOrigin:  cfg.AllowedOrigin,
		APIRateLimit:   cfg.APIRateLimit,
		APIRateWindow:  cfg.APIRateWindow,
		GameRateLimit:  cfg.GameRateLimit,
		GameRateWindow: cfg.GameRateWindow,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
