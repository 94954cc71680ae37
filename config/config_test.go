package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Expected driver memory, got %s", cfg.Storage.Driver)
	}
	if cfg.Storage.GameTTL != 24*time.Hour {
		t.Errorf("Expected game ttl 24h, got %s", cfg.Storage.GameTTL)
	}
	if cfg.Server.HTTPAddress != ":8080" || cfg.Server.WSPath != "/ws" {
		t.Errorf("Unexpected server config: %+v", cfg.Server)
	}
	if cfg.Driver.AgentDelay != 1500*time.Millisecond {
		t.Errorf("Expected agent delay 1.5s, got %s", cfg.Driver.AgentDelay)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  http_address: ":9000"
storage:
  driver: gorm
  postgres:
    port: 6543
driver:
  tick: 50ms
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CLUE_STORAGE_POSTGRES_DBNAME", "clue_test")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.HTTPAddress != ":9000" {
		t.Errorf("Expected :9000, got %s", cfg.Server.HTTPAddress)
	}
	if cfg.Storage.Driver != "gorm" || cfg.Storage.Postgres.Port != 6543 {
		t.Errorf("Unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Storage.Postgres.DBName != "clue_test" {
		t.Errorf("Expected dbname from env, got %s", cfg.Storage.Postgres.DBName)
	}
	if cfg.Driver.Tick != 50*time.Millisecond {
		t.Errorf("Expected tick 50ms, got %s", cfg.Driver.Tick)
	}
}
