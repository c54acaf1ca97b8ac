package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/nexus/internal/codes"
	"github.com/danmuck/nexus/internal/logging"
	"github.com/danmuck/nexus/internal/travelers"
)

type ServerConfig struct {
	Name        string
	Addr        string
	CorsOrigins []string
	Company     string
	LogLevel    string
	Store       StoreConfig
	StepFormat  codes.StepFormat
}

type StoreConfig struct {
	Driver          string
	DSN             string
	SeedFile        string
	ConnectAttempts int
}

type fileConfig struct {
	Name        string   `toml:"name"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
	Company     string   `toml:"company"`
	LogLevel    string   `toml:"log_level"`
	Store       struct {
		Driver          string `toml:"driver"`
		DSN             string `toml:"dsn"`
		SeedFile        string `toml:"seed_file"`
		ConnectAttempts int    `toml:"connect_attempts"`
	} `toml:"store"`
	Codes struct {
		StepFormat string `toml:"step_format"`
	} `toml:"codes"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Name:        "nexusd",
		Addr:        ":8000",
		CorsOrigins: []string{"http://localhost:3000"},
		Company:     "American Circuits",
		LogLevel:    "info",
		Store: StoreConfig{
			Driver:          travelers.DriverMemory,
			ConnectAttempts: 10,
		},
		StepFormat: codes.StepFormatCurrent,
	}
}

// LoadServerConfig overlays the keys present in the TOML file at path onto
// DefaultServerConfig and validates the result.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return ServerConfig{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}
	if meta.IsDefined("company") {
		cfg.Company = strings.TrimSpace(raw.Company)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("store", "driver") {
		cfg.Store.Driver = strings.ToLower(strings.TrimSpace(raw.Store.Driver))
	}
	if meta.IsDefined("store", "dsn") {
		cfg.Store.DSN = strings.TrimSpace(raw.Store.DSN)
	}
	if meta.IsDefined("store", "seed_file") {
		cfg.Store.SeedFile = strings.TrimSpace(raw.Store.SeedFile)
	}
	if meta.IsDefined("store", "connect_attempts") {
		cfg.Store.ConnectAttempts = raw.Store.ConnectAttempts
	}
	if meta.IsDefined("codes", "step_format") {
		cfg.StepFormat = codes.StepFormat(strings.ToLower(strings.TrimSpace(raw.Codes.StepFormat)))
	}

	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("server config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("server config invalid log_level %q", cfg.LogLevel)
	}
	switch cfg.StepFormat {
	case codes.StepFormatCurrent, codes.StepFormatV2:
	default:
		return fmt.Errorf("server config invalid codes.step_format %q (want current|v2)", cfg.StepFormat)
	}
	if err := ValidateStoreConfig(cfg.Store); err != nil {
		return fmt.Errorf("store invalid: %w", err)
	}
	return nil
}

func ValidateStoreConfig(cfg StoreConfig) error {
	switch cfg.Driver {
	case travelers.DriverMemory:
		return nil
	case travelers.DriverPostgres, travelers.DriverSQLite:
		if strings.TrimSpace(cfg.DSN) == "" {
			return fmt.Errorf("dsn is required for driver %s", cfg.Driver)
		}
		if cfg.ConnectAttempts < 1 {
			return fmt.Errorf("connect_attempts must be at least 1")
		}
		return nil
	default:
		return fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
