package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig without a file should not fail, got: %v", err)
	}

	if cfg.Server.HTTPAddress != ":8080" {
		t.Errorf("Expected default http address :8080, got %s", cfg.Server.HTTPAddress)
	}
	if cfg.Server.TickRate != 20 {
		t.Errorf("Expected default tick rate 20, got %d", cfg.Server.TickRate)
	}
	if cfg.Database.Driver != "none" {
		t.Errorf("Expected database driver none, got %s", cfg.Database.Driver)
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
server:
  http_address: ":9000"
  tick_rate: 10
database:
  driver: gorm
  postgres:
    host: db
    port: 6543
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.HTTPAddress != ":9000" {
		t.Errorf("Expected :9000, got %s", cfg.Server.HTTPAddress)
	}
	if cfg.Server.TickRate != 10 {
		t.Errorf("Expected tick rate 10, got %d", cfg.Server.TickRate)
	}
	if cfg.Database.Postgres.Host != "db" || cfg.Database.Postgres.Port != 6543 {
		t.Errorf("Unexpected postgres config: %+v", cfg.Database.Postgres)
	}
	// Untouched keys keep their defaults.
	if cfg.Server.RPCAddress != ":8081" {
		t.Errorf("Expected default rpc address, got %s", cfg.Server.RPCAddress)
	}
}
