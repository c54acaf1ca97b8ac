package config

import (
	"context"
	"fmt"

	"github.com/danmuck/nexus/internal/templates"
	"github.com/danmuck/nexus/internal/travelers"
	"github.com/rs/zerolog/log"
)

// OpenStore builds the configured record store and applies the seed file,
// if any.
func OpenStore(ctx context.Context, cfg StoreConfig) (travelers.Store, error) {
	var store travelers.Store
	switch cfg.Driver {
	case travelers.DriverMemory:
		store = travelers.NewMemoryStore()
	default:
		gormStore, err := travelers.OpenGorm(cfg.Driver, cfg.DSN, cfg.ConnectAttempts)
		if err != nil {
			return nil, err
		}
		store = gormStore
	}

	if cfg.SeedFile == "" {
		return store, nil
	}
	seed, err := travelers.LoadSeedFile(cfg.SeedFile)
	if err != nil {
		store.Close()
		return nil, err
	}
	table, err := templates.Default()
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := seed.Apply(ctx, store, table); err != nil {
		store.Close()
		return nil, fmt.Errorf("apply seed %s: %w", cfg.SeedFile, err)
	}
	log.Info().Str("seed_file", cfg.SeedFile).Int("travelers", len(seed.Travelers)).Msg("store seeded")
	return store, nil
}
