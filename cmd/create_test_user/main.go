package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sniperok/internal/config"
	"sniperok/internal/db"
	"sniperok/internal/domain"
	"sniperok/internal/logger"
	"sniperok/internal/repository"
	"sniperok/internal/service"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

// create_test_user stores a user and prints a session token for it, for use
// with curl or cmd/chat against a local server.
func main() {
	app := &cli.App{
		Name:  "create_test_user",
		Usage: "create a user and print a session token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Usage: "defaults to a random name"},
			&cli.StringFlag{Name: "email", Usage: "defaults to <username>@example.com"},
			&cli.StringFlag{Name: "id", Usage: "user uuid, defaults to a new one"},
			&cli.BoolFlag{Name: "anonymous", Usage: "create a guest identity"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logger.Fatal("create_test_user failed", "error", err)
	}
}

func run(c *cli.Context) error {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	pool := db.Connect(cfg.DatabaseURL)
	defer pool.Close()

	id := domain.Identity{
		UserID:      c.String("id"),
		Username:    c.String("username"),
		Email:       c.String("email"),
		IsAnonymous: c.Bool("anonymous"),
	}
	if id.UserID == "" {
		id.UserID = uuid.NewString()
	}
	if !id.IsAnonymous {
		if id.Username == "" {
			id.Username = strings.ToLower(gofakeit.Username())
		}
		if id.Email == "" {
			id.Email = id.Username + "@example.com"
		}
	}

	ctx := context.Background()
	if err := repository.NewUserRepository(pool).Upsert(ctx, id); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	token, err := service.NewJWTService(cfg.JWTSecret, cfg.JWTTTL).Generate(id)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	logger.Info("user ready", "id", id.UserID, "username", id.DisplayName(), "anonymous", id.IsAnonymous)
	fmt.Println(token)
	return nil
}
