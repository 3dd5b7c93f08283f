// Command migrate applies or rolls back the embedded schema migrations.
//
// Usage:
//
//	migrate up        apply all pending migrations
//	migrate down      roll back the most recent migration
//	migrate version   print the current schema version
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/citivoice/complaint-server/internal/config"
	"github.com/citivoice/complaint-server/internal/database"
	"go.uber.org/zap"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		sugar.Fatal("DATABASE_URL is required")
	}

	m, err := database.NewMigrator(cfg.DatabaseURL, sugar)
	if err != nil {
		sugar.Fatalf("Failed to create migrator: %v", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil {
			sugar.Fatalw("Migration up failed", "error", err)
		}
	case "down":
		if err := m.Down(); err != nil {
			sugar.Fatalw("Migration down failed", "error", err)
		}
		sugar.Info("Rolled back one migration")
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			sugar.Fatalw("Failed to read version", "error", err)
		}
		if version == 0 {
			sugar.Info("No migrations applied")
			return
		}
		sugar.Infow("Current migration version", "version", version, "dirty", dirty)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate <up|down|version>")
}
