package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
environment: test
server:
  port: 8080
backend:
  type: clickhouse
replay:
  intervals: [10, 20, 30]
  default_interval: 20
commentary:
  service_url: http://localhost:5001
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.Type != "clickhouse" {
		t.Fatalf("backend = %q, want clickhouse", cfg.Backend.Type)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
backend:
  type: postgres
commentary:
  service_url: http://localhost:5001
`))
	if err == nil {
		t.Fatal("expected error for unknown backend type")
	}
}

func TestLoadRequiresCommentaryURL(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
backend:
  type: kafka
`))
	if err == nil {
		t.Fatal("expected error for missing commentary.service_url")
	}
}

func TestValidateDefaultsReplayIntervals(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: test
backend:
  type: kafka
commentary:
  service_url: http://localhost:5001
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Replay.Intervals) != 3 || cfg.Replay.DefaultInterval != 20 {
		t.Fatalf("replay defaults not applied: %+v", cfg.Replay)
	}
}

func TestValidateRejectsIntervalMismatch(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
backend:
  type: kafka
replay:
  intervals: [10, 30]
  default_interval: 20
commentary:
  service_url: http://localhost:5001
`))
	if err == nil {
		t.Fatal("expected error for default_interval outside intervals")
	}
}

func TestValidateRequiresSecretWhenAuthEnabled(t *testing.T) {
	_, err := Load(writeConfig(t, validYAML + `
auth:
  enabled: true
`))
	if err == nil {
		t.Fatal("expected error for enabled auth without jwt_secret")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BACKEND", "kafka")
	t.Setenv("KAFKA_TOPIC", "override.plays")
	t.Setenv("COMMENTARY_SERVICE_URL", "http://commentary:5001")

	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Backend.Type != "kafka" {
		t.Fatalf("backend = %q, want kafka", cfg.Backend.Type)
	}
	if cfg.Kafka.Topic != "override.plays" {
		t.Fatalf("topic = %q, want override.plays", cfg.Kafka.Topic)
	}
	if cfg.Commentary.ServiceURL != "http://commentary:5001" {
		t.Fatalf("commentary url = %q", cfg.Commentary.ServiceURL)
	}
}
