package metrics_test

import (
	"testing"

	"github.com/kilianp07/powermatch/core/factory"
	metrics "github.com/kilianp07/powermatch/core/metrics"
	_ "github.com/kilianp07/powermatch/infra/metrics"
)

func TestSinkTypes_Builtins(t *testing.T) {
	got := map[string]bool{}
	for _, n := range metrics.SinkTypes() {
		got[n] = true
	}
	for _, n := range []string{"influx", "nop", "prometheus"} {
		if !got[n] {
			t.Fatalf("sink %s not registered, have %v", n, metrics.SinkTypes())
		}
	}
	if err := metrics.RegisterMetricsSink("nop", func(map[string]any) (metrics.MetricsSink, error) {
		return metrics.NopSink{}, nil
	}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestNewMetricsSink_Counts(t *testing.T) {
	cases := []struct {
		name  string
		cfgs  []factory.ModuleConfig
		check func(metrics.MetricsSink) bool
	}{
		{"none", nil, func(s metrics.MetricsSink) bool { _, ok := s.(metrics.NopSink); return ok }},
		{"one", []factory.ModuleConfig{{Type: "nop"}}, func(s metrics.MetricsSink) bool { _, ok := s.(metrics.NopSink); return ok }},
		{"two", []factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}}, func(s metrics.MetricsSink) bool {
			m, ok := s.(*metrics.MultiSink)
			return ok && len(m.Sinks) == 2
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := metrics.NewMetricsSink(c.cfgs)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if !c.check(s) {
				t.Fatalf("unexpected sink %T", s)
			}
		})
	}
	if _, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "missing"}}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
