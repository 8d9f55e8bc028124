package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
app:
  env: dev
http:
  addr: ":9090"
  read_timeout: 5s
storage:
  driver: postgres
postgres:
  dsn: "postgres://u:p@db:5432/planner"
metrics:
  enabled: false
telegram:
  token: "123:abc"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if c.App.Env != "dev" {
		t.Errorf("Expected env dev, got %s", c.App.Env)
	}
	if c.HTTP.Addr != ":9090" {
		t.Errorf("Expected addr :9090, got %s", c.HTTP.Addr)
	}
	if c.HTTP.ReadTimeout != 5*time.Second {
		t.Errorf("Expected read timeout 5s, got %v", c.HTTP.ReadTimeout)
	}
	if c.HTTP.WriteTimeout != 15*time.Second {
		t.Errorf("Expected default write timeout 15s, got %v", c.HTTP.WriteTimeout)
	}
	if c.Metrics.Enabled {
		t.Error("Expected metrics disabled")
	}
	if c.Telegram.Token != "123:abc" || c.Telegram.PollTimeout != 30 {
		t.Errorf("Unexpected telegram config: %+v", c.Telegram)
	}
	if len(c.HTTP.CORSOrigins) != 1 || c.HTTP.CORSOrigins[0] != "*" {
		t.Errorf("Expected default CORS origins [*], got %v", c.HTTP.CORSOrigins)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: postgres
postgres:
  dsn: "postgres://from-file"
`)
	t.Setenv("APP_POSTGRES_DSN", "postgres://from-env")
	t.Setenv("APP_HTTP_ADDR", ":7070")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if c.Postgres.DSN != "postgres://from-env" {
		t.Errorf("Expected DSN from env, got %s", c.Postgres.DSN)
	}
	if c.HTTP.Addr != ":7070" {
		t.Errorf("Expected addr from env, got %s", c.HTTP.Addr)
	}
}

func TestLoad_MemoryDriverNeedsNoDSN(t *testing.T) {
	c, err := Load(writeConfig(t, "storage:\n  driver: memory\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if c.Storage.Driver != StorageMemory {
		t.Errorf("Expected memory driver, got %s", c.Storage.Driver)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"postgres without dsn", "storage:\n  driver: postgres\n", "postgres.dsn"},
		{"unknown driver", "storage:\n  driver: mongo\n", "unknown storage.driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error to contain %q, got %v", tt.want, err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
