package config

import (
	"os"
	"path/filepath"
	"testing"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `inputs:
  tables: "scenario.yaml"
  hourly: "hourly.csv"
powermatch:
  carbon_price: 25
  adjustments:
    Onshore Wind: 1.5
optimise:
  population: 40
  generations: 30
  stop: 5
  seed: 7
metrics:
  sinks:
    - type: "nop"
  prometheus_addr: ":9100"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  topic_prefix: "pm"
store:
  backend: "sqlite"
  path: "runs.db"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"inputs.tables", cfg.Inputs.Tables, "scenario.yaml"},
		{"inputs.hourly", cfg.Inputs.Hourly, "hourly.csv"},
		{"carbon_price", cfg.Powermatch.CarbonPrice, 25.0},
		{"load_multiplier default", cfg.Powermatch.LoadMultiplier, 1.0},
		{"adjustment", cfg.Powermatch.Adjustments["Onshore Wind"], 1.5},
		{"population", cfg.Optimise.PopulationSize, 40},
		{"generations", cfg.Optimise.Generations, 30},
		{"stop", cfg.Optimise.StopThreshold, 5},
		{"seed", cfg.Optimise.Seed, int64(7)},
		{"penalty default", cfg.Optimise.Penalty, 200.0},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"mqtt.enabled", cfg.MQTT.Enabled, true},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.topic_prefix", cfg.MQTT.TopicPrefix, "pm"},
		{"store.backend", cfg.Store.Backend, "sqlite"},
		{"store.path", cfg.Store.Path, "runs.db"},
		{"logging.level", cfg.Logging.Level, "info"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PM_OPTIMISE__SEED", "99")
	t.Setenv("PM_LOGGING__LEVEL", "debug")
	t.Setenv("PM_OPTIMISE__POPULATION", "12")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Optimise.Seed != 99 {
		t.Errorf("expected seed 99 got %d", cfg.Optimise.Seed)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level got %s", cfg.Logging.Level)
	}
	if cfg.Optimise.PopulationSize != 12 {
		t.Errorf("expected population 12 got %d", cfg.Optimise.PopulationSize)
	}
	if cfg.Store.Backend != "jsonl" {
		t.Errorf("expected default jsonl store got %s", cfg.Store.Backend)
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	cfg.Store.Backend = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected store error")
	}
	cfg.Store.Backend = "jsonl"
	cfg.Optimise.PopulationSize = 1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected population error")
	}
}

func TestSentryValidate(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Sentry.Environment != "production" {
		t.Fatalf("expected default environment got %q", cfg.Sentry.Environment)
	}
	cfg.Sentry.TracesSampleRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected sample rate error")
	}
}
