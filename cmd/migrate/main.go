package main

import (
	"errors"
	"fmt"
	"os"

	"sniperok/internal/logger"
	"sniperok/internal/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()
	logger.Init("info", false)

	app := &cli.App{
		Name:  "migrate",
		Usage: "apply the embedded database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "postgres connection url",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(c *cli.Context) error {
					return migrations.Up(c.String("database-url"))
				},
			},
			{
				Name:  "down",
				Usage: "roll back the given number of migrations (default 1)",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1},
				},
				Action: func(c *cli.Context) error {
					return withMigrator(c, func(m *migrate.Migrate) error {
						return m.Steps(-c.Int("steps"))
					})
				},
			},
			{
				Name:  "version",
				Usage: "print the current schema version",
				Action: func(c *cli.Context) error {
					return withMigrator(c, func(m *migrate.Migrate) error {
						v, dirty, err := m.Version()
						if errors.Is(err, migrate.ErrNilVersion) {
							fmt.Println("no migrations applied")
							return nil
						}
						if err != nil {
							return err
						}
						fmt.Printf("version %d (dirty=%t)\n", v, dirty)
						return nil
					})
				},
			},
			{
				Name:      "force",
				Usage:     "set the schema version without running migrations, clearing the dirty flag",
				ArgsUsage: "<version>",
				Action: func(c *cli.Context) error {
					var v int
					if _, err := fmt.Sscan(c.Args().First(), &v); err != nil {
						return fmt.Errorf("force: version required: %w", err)
					}
					return withMigrator(c, func(m *migrate.Migrate) error {
						return m.Force(v)
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal("migrate failed", "error", err)
	}
}

func withMigrator(c *cli.Context, fn func(*migrate.Migrate) error) error {
	m, err := migrations.New(c.String("database-url"))
	if err != nil {
		return err
	}
	defer m.Close()

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
