package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/nexus/internal/api"
	"github.com/danmuck/nexus/internal/config"
	"github.com/danmuck/nexus/internal/labels"
	"github.com/danmuck/nexus/internal/logging"
	"github.com/danmuck/nexus/internal/node"
	"github.com/danmuck/nexus/internal/scan"
	"github.com/danmuck/nexus/internal/templates"
	"github.com/rs/zerolog/log"
)

const defaultConfigPath = "cmd/nexusd/config.toml"

func main() {
	logging.ConfigureRuntime()
	configPath := flag.String("config", defaultConfigPath, "server config path")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Error().Err(err).Msg("nexusd stopped")
		os.Exit(1)
	}
}

// run owns every resource nexusd opens so deferred cleanup happens before
// main exits.
func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load server config: %w", err)
	}
	if os.Getenv(logging.EnvLogLevel) == "" {
		if level, ok := logging.ParseLevel(cfg.LogLevel); ok {
			logging.SetLevel(level)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := templates.Default()
	if err != nil {
		return err
	}
	store, err := config.OpenStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()

	server := api.Appear(api.Options{
		ID:          cfg.Name,
		Addr:        cfg.Addr,
		CorsOrigins: cfg.CorsOrigins,
		Store:       store,
		Templates:   table,
		Scans:       scan.NewService(store),
		Labels: labels.NewService(store,
			labels.WithCompany(cfg.Company),
			labels.WithStepFormat(cfg.StepFormat),
		),
	})
	server.RegisterRoutes()

	log.Info().
		Str("store", cfg.Store.Driver).
		Str("step_format", string(cfg.StepFormat)).
		Msg("nexusd starting")
	return node.Serve(ctx, server, cfg.Addr)
}

// loadConfig falls back to defaults when the default path is absent.
func loadConfig(path string) (config.ServerConfig, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("path", path).Msg("config not found, using defaults")
			return config.DefaultServerConfig(), nil
		}
	}
	cfg, err := config.LoadServerConfig(path)
	if err != nil {
		return config.ServerConfig{}, err
	}
	log.Info().Str("path", path).Msg("loaded server config")
	return cfg, nil
}
