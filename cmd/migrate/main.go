package main

import (
	"flag"
	"fmt"
	"os"

	"promptmart/internal/config"
	"promptmart/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		return fmt.Errorf("usage: migrate <up|down|version>")
	}

	logger := config.NewLogger(config.LoggerConfig{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	}, "migrate")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		db := config.DatabaseConfig{
			Host:     envOr("DB_HOST", "localhost"),
			Port:     5432,
			User:     envOr("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Database: envOr("DB_NAME", "promptmart"),
		}
		if port := os.Getenv("DB_PORT"); port != "" {
			if _, err := fmt.Sscanf(port, "%d", &db.Port); err != nil {
				return fmt.Errorf("invalid DB_PORT %q: %w", port, err)
			}
		}
		databaseURL = db.ConnectionString()
	}

	sourceURL := envOr("MIGRATIONS_PATH", "file://migrations")

	return database.Migrate(sourceURL, databaseURL, database.MigrateCommand(args[0]), logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
