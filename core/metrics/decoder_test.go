package metrics_test

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"

	metrics "github.com/kilianp07/powermatch/core/metrics"
	_ "github.com/kilianp07/powermatch/infra/metrics"
)

func TestMetricsConfigDecodeYAML(t *testing.T) {
	data := `sinks:
  - type: nop
  - type: influx
    conf:
      url: http://127.0.0.1:1
      bucket: powermatch
`
	var cfg metrics.Config
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	if got := cfg.Sinks[1].Conf["bucket"]; got != "powermatch" {
		t.Fatalf("expected bucket conf got %v", got)
	}
	// the influx sink falls back to a nop sink when the server is unreachable
	s, err := metrics.NewMetricsSink(cfg.Sinks)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := s.(*metrics.MultiSink); !ok {
		t.Fatalf("expected MultiSink got %T", s)
	}
}

func TestMetricsConfigDecodeJSON_Invalid(t *testing.T) {
	data := `{"sinks":[{"type":"missing"}],"prometheus_addr":":9100"}`
	var cfg metrics.Config
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if cfg.PrometheusAddr != ":9100" {
		t.Fatalf("unexpected addr %q", cfg.PrometheusAddr)
	}
	if _, err := metrics.NewMetricsSink(cfg.Sinks); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
