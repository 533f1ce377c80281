package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/gizihub/gizihub/internal/app"
	"github.com/gizihub/gizihub/internal/platform/db"
)

const defaultMigrationsPath = "migrations"

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	path := os.Getenv("MIGRATIONS_PATH")
	if path == "" {
		path = defaultMigrationsPath
	}

	migrator, err := db.NewMigrator(cfg.PGDSN, path)
	if err != nil {
		logger.Error("init migrator", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Warn("migrator close", slog.Any("error", err))
		}
	}()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		if err := migrator.Up(); err != nil {
			logger.Error("migrate up", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied")
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			if parsed, err := strconv.Atoi(os.Args[2]); err == nil {
				steps = parsed
			}
		}
		if err := migrator.Down(steps); err != nil {
			logger.Error("migrate down", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations rolled back", slog.Int("steps", steps))
	case "version":
		version, dirty, err := migrator.Version()
		if err != nil {
			logger.Error("migrate version", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("schema version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	default:
		fmt.Fprintf(os.Stderr, "usage: migrate [up|down [steps]|version]\n")
		os.Exit(2)
	}
}
