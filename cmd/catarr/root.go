package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/catarr/catarr/internal/catalog"
	"github.com/catarr/catarr/internal/config"
	"github.com/catarr/catarr/internal/events"
	"github.com/catarr/catarr/internal/migrations"
)

var version = "dev"

var (
	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "catarr",
	Short: "Media catalog and identification",
	Long: `catarr - media catalog and identification

Scans media libraries, identifies episode files against canonical
provider lists, and reports collection completeness.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: discovered)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("catarr {{.Version}}\n")
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// app bundles everything a store-backed command needs.
type app struct {
	cfg   *config.Config
	db    *sql.DB
	store *catalog.Store
	bus   *events.Bus
	log   *slog.Logger
}

// openApp loads config, opens the database, and applies migrations.
func openApp() (*app, error) {
	path := configPath
	if path == "" {
		discovered, err := config.Discover()
		if err != nil {
			return nil, err
		}
		path = discovered
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.Database.Path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrations.Apply(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	bus := events.NewBus(events.NewEventLog(db), logger)
	return &app{
		cfg:   cfg,
		db:    db,
		store: catalog.NewStore(db),
		bus:   bus,
		log:   logger,
	}, nil
}

func (a *app) Close() {
	_ = a.bus.Close()
	_ = a.db.Close()
}
