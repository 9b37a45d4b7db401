package config

import (
	"os"
	"testing"
	"time"
)

const sampleConfig = `
llm:
  provider: openai
  base_url: https://api.example.com
  api_key: dummy
  model: gpt-4o
server:
  host: 0.0.0.0
  port: "8080"
history:
  backend: redis
  redis:
    addr: localhost:6379
    key_prefix: "chat:"
    ttl: 24h
  bigtable:
    project_id: my-project
    instance_id: my-instance
    table: chat_history
payman:
  api_secret: secret
log_level: debug
`

// TestLoad verifies that Load reads CONFIG_PATH and unmarshals nested backend
// configuration, including TTL durations.
func TestLoad(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString(sampleConfig); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()

	t.Setenv("CONFIG_PATH", tmp.Name())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("unexpected model: %s", cfg.LLM.Model)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.History.Backend != BackendRedis {
		t.Fatalf("expected redis backend, got %s", cfg.History.Backend)
	}
	if cfg.History.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected redis addr: %s", cfg.History.Redis.Addr)
	}
	if cfg.History.Redis.KeyPrefix != "chat:" {
		t.Fatalf("unexpected key prefix: %s", cfg.History.Redis.KeyPrefix)
	}
	if cfg.History.Redis.TTL != 24*time.Hour {
		t.Fatalf("ttl not parsed as duration: %v", cfg.History.Redis.TTL)
	}
	if cfg.History.Bigtable.ProjectID != "my-project" {
		t.Fatalf("unexpected bigtable project: %s", cfg.History.Bigtable.ProjectID)
	}
	if cfg.Payman.APISecret != "secret" {
		t.Fatalf("payman secret not parsed")
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}

// TestLoad_MissingFile ensures a missing config file surfaces as an error.
func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
