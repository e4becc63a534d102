package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("driver = %q", cfg.Storage.Driver)
	}
	if cfg.Seats.TTL != 60*time.Second || cfg.Seats.SweepInterval != 60*time.Second {
		t.Fatalf("seats timing = %v / %v", cfg.Seats.TTL, cfg.Seats.SweepInterval)
	}
	if cfg.Seats.Ceiling != 25 {
		t.Fatalf("ceiling = %d", cfg.Seats.Ceiling)
	}
	if cfg.Seats.Pools.Collector != 16 || cfg.Seats.Pools.Monitor != 4 || cfg.Seats.Pools.Crew != 5 {
		t.Fatalf("pools = %+v", cfg.Seats.Pools)
	}
	if cfg.App.Env != "dev" {
		t.Fatalf("env = %q", cfg.App.Env)
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":9090"
storage:
  driver: redis
  redis:
    addr: "redis:6379"
seats:
  ttl: 30s
  ceiling: 10
credential:
  tenant: acme
  kid: k1
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	// El entorno pisa al YAML.
	t.Setenv("SEATS_CEILING", "7")
	t.Setenv("REDIS_PREFIX", "ops")
	t.Setenv("APP_ENV", "PROD")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Storage.Driver != "redis" || cfg.Storage.Redis.Addr != "redis:6379" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if cfg.Seats.TTL != 30*time.Second {
		t.Fatalf("ttl = %v", cfg.Seats.TTL)
	}
	if cfg.Seats.Ceiling != 7 {
		t.Fatalf("env override lost: ceiling = %d", cfg.Seats.Ceiling)
	}
	if cfg.Storage.Redis.Prefix != "ops" {
		t.Fatalf("prefix = %q", cfg.Storage.Redis.Prefix)
	}
	if cfg.App.Env != "prod" {
		t.Fatalf("env = %q", cfg.App.Env)
	}
	if cfg.Credential.Tenant != "acme" || cfg.Credential.KID != "k1" {
		t.Fatalf("credential = %+v", cfg.Credential)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
