// Command migrate applies the embedded SQLite schema migrations by hand.
//
//	migrate [-config file] [-db path] up|down|drop|version
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"

	"github.com/warp/candleworks/api"
	"github.com/warp/candleworks/config"
	"github.com/warp/candleworks/store/sqlite"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "YAML config file")
	dbPath := flag.String("db", "", "SQLite database path (overrides database.path)")
	flag.Parse()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := api.NewLogger(cfg.Log.Level, cfg.Log.Format)

	path := cfg.Database.Path
	if *dbPath != "" {
		path = *dbPath
	}

	if err := runMigration(logger, action, path); err != nil {
		logger.Error("migration failed", "action", action, "db", path, "error", err)
		os.Exit(1)
	}
	logger.Info("migration completed", "action", action, "db", path)
}

func runMigration(logger *slog.Logger, action, path string) error {
	src, err := sqlite.MigrationsSource()
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+path)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	switch action {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "drop":
		return m.Drop()
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migration applied")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("schema version", "version", version, "dirty", dirty)
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}
