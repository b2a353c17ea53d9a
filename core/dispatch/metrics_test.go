package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistration(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)

	residual := []float64{10, 30, -5}
	if _, err := Simulate(residual, []Unit{{Name: "Gas", Capacity: 20}}, Options{}); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[*mf.Name] = true
	}
	expected := []string{
		"powermatch_dispatch_seconds",
		"powermatch_dispatch_total",
		"powermatch_dispatch_errors_total",
		"powermatch_dispatch_units_total",
		"powermatch_dispatch_shortfall_hours",
	}
	for _, n := range expected {
		if !names[n] {
			t.Errorf("metric %s not registered", n)
		}
	}
	if got := testutil.ToFloat64(simulations); got != 1 {
		t.Fatalf("expected 1 pass got %v", got)
	}
	if got := testutil.ToFloat64(unitsDispatched.WithLabelValues("generator")); got != 1 {
		t.Fatalf("expected 1 generator got %v", got)
	}
}

func TestMetrics_StorageError(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	bad := &StorageParams{Capacity: 10, MaxLevel: 10, RechargeCap: 10, RechargeLoss: 1}
	if _, err := Simulate([]float64{1}, []Unit{{Name: "Battery", Capacity: 10, Storage: bad}}, Options{}); err == nil {
		t.Fatalf("expected invalid storage error")
	}
	if got := testutil.ToFloat64(simulationErrors); got != 1 {
		t.Fatalf("expected 1 error got %v", got)
	}
}
