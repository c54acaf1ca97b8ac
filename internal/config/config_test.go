package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/nexus/internal/codes"
	"github.com/danmuck/nexus/internal/testutil/testlog"
	"github.com/danmuck/nexus/internal/travelers"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadServerConfigDefaultsAndOverrides(t *testing.T) {
	path := writeFile(t, "nexusd.toml", `
addr = "127.0.0.1:9800"
cors_origins = [" http://a ", ""]

[store]
driver = "SQLite"
dsn = "file:nexus.db"

[codes]
step_format = "v2"
`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "nexusd" {
		t.Fatalf("expected default name, got %q", cfg.Name)
	}
	if cfg.Addr != "127.0.0.1:9800" {
		t.Fatalf("unexpected addr: %q", cfg.Addr)
	}
	if len(cfg.CorsOrigins) != 1 || cfg.CorsOrigins[0] != "http://a" {
		t.Fatalf("unexpected origins: %+v", cfg.CorsOrigins)
	}
	if cfg.Store.Driver != travelers.DriverSQLite || cfg.Store.DSN != "file:nexus.db" {
		t.Fatalf("unexpected store: %+v", cfg.Store)
	}
	if cfg.Store.ConnectAttempts != 10 {
		t.Fatalf("expected default connect attempts, got %d", cfg.Store.ConnectAttempts)
	}
	if cfg.StepFormat != codes.StepFormatV2 {
		t.Fatalf("unexpected step format: %q", cfg.StepFormat)
	}
}

func TestLoadServerConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "bogus = 1\n",
		"empty addr":     "addr = \"\"\n",
		"bad format":     "[codes]\nstep_format = \"v9\"\n",
		"missing dsn":    "[store]\ndriver = \"postgres\"\n",
		"unknown driver": "[store]\ndriver = \"oracle\"\n",
		"bad level":      "log_level = \"loud\"\n",
		"zero attempts":  "[store]\ndriver = \"postgres\"\ndsn = \"x\"\nconnect_attempts = 0\n",
	}
	for name, body := range cases {
		path := writeFile(t, "bad.toml", body)
		if _, err := LoadServerConfig(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestTemplatesValidate(t *testing.T) {
	dir := t.TempDir()
	serverPath := filepath.Join(dir, "nexusd.toml")
	if err := WriteTemplate(serverPath, "nexusd", false); err != nil {
		t.Fatalf("write server template: %v", err)
	}
	if err := WriteTemplate(serverPath, "nexusd", false); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite guard, got %v", err)
	}
	if _, err := LoadServerConfig(serverPath); err != nil {
		t.Fatalf("server template invalid: %v", err)
	}
	if _, err := Template("mirage"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestOpenStoreMemorySeeded(t *testing.T) {
	testlog.Start(t)
	seedPath := filepath.Join(t.TempDir(), "seed.toml")
	if err := WriteTemplate(seedPath, "seed", false); err != nil {
		t.Fatalf("write seed template: %v", err)
	}
	store, err := OpenStore(context.Background(), StoreConfig{Driver: travelers.DriverMemory, SeedFile: seedPath})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	tr, err := store.Traveler(context.Background(), 7)
	if err != nil || tr.JobNumber != "8414L" {
		t.Fatalf("unexpected seeded traveler: %+v err=%v", tr, err)
	}
	steps, err := store.ProcessSteps(context.Background(), 8)
	if err != nil || len(steps) != 1 || steps[0].WorkCenterCode != "CABLE_PREP" {
		t.Fatalf("expected templated cable routing, got %+v err=%v", steps, err)
	}
}

func TestOpenStoreMissingSeed(t *testing.T) {
	_, err := OpenStore(context.Background(), StoreConfig{
		Driver:   travelers.DriverMemory,
		SeedFile: filepath.Join(t.TempDir(), "nope.toml"),
	})
	if err == nil {
		t.Fatalf("expected missing seed error")
	}
}

func TestOpenStoreSQLiteReopenDoesNotDuplicateSteps(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.toml")
	if err := WriteTemplate(seedPath, "seed", false); err != nil {
		t.Fatalf("write seed template: %v", err)
	}
	cfg := StoreConfig{
		Driver:          travelers.DriverSQLite,
		DSN:             filepath.Join(dir, "nexus.db"),
		SeedFile:        seedPath,
		ConnectAttempts: 1,
	}
	ctx := context.Background()
	for start := 1; start <= 2; start++ {
		store, err := OpenStore(ctx, cfg)
		if err != nil {
			t.Skipf("sqlite unavailable: %v", err)
		}
		steps, err := store.ProcessSteps(ctx, 7)
		if err != nil {
			t.Fatalf("start %d: steps: %v", start, err)
		}
		manual, err := store.ManualSteps(ctx, 7)
		if err != nil {
			t.Fatalf("start %d: manual steps: %v", start, err)
		}
		if len(steps) != 2 || len(manual) != 1 {
			t.Fatalf("start %d: traveler 7 has %d process steps, %d manual steps", start, len(steps), len(manual))
		}
		if err := store.Close(); err != nil {
			t.Fatalf("start %d: close: %v", start, err)
		}
	}
}
