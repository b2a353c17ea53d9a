package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/powermatch/core/aggregate"
	coremetrics "github.com/kilianp07/powermatch/core/metrics"
)

func captureServer(bodies *[]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*bodies = append(*bodies, strings.TrimSpace(string(b)))
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestInfluxSink_RecordGeneration(t *testing.T) {
	var bodies []string
	srv := captureServer(&bodies)
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	ev := coremetrics.GenerationEvent{
		RunID: "r1", Generation: 3, Best: 91.23456, BestEver: 90.5, Mean: 150,
		Evaluations: 80, Elapsed: 1500 * time.Millisecond, Time: now,
	}
	if err := sink.RecordGeneration(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("powermatch_generation").
		AddTag("run_id", "r1").
		AddField("generation", 3).
		AddField("best", 91.235).
		AddField("best_ever", 90.5).
		AddField("mean", 150.0).
		AddField("evaluations", 80).
		AddField("elapsed_s", 1.5).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(bodies) != 1 || bodies[0] != exp {
		t.Errorf("bodies: %#v", bodies)
	}
}

func TestInfluxSink_RecordSummary(t *testing.T) {
	var bodies []string
	srv := captureServer(&bodies)
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	sum := aggregate.Summary{
		Rows: []aggregate.Row{
			{Name: "Gas", Capacity: 100, Generation: 438000, CapacityFactor: aggregate.Of(0.5), Cost: aggregate.Of(63072000), LCOE: aggregate.Of(144)},
			{Name: "Idle"},
		},
		Totals: aggregate.Totals{Capacity: 100, Generation: 438000, Cost: 63072000, LCOE: aggregate.Of(144)},
		Load:   aggregate.LoadAnalysis{Total: 438000, Met: 438000},
	}
	if err := sink.RecordSummary(coremetrics.SummaryEvent{RunID: "r1", Kind: coremetrics.KindPowermatch, Summary: sum, Time: time.Now()}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(bodies) != 1 {
		t.Fatalf("expected one write, got %d", len(bodies))
	}
	lines := strings.Split(bodies[0], "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 points, got %d: %s", len(lines), bodies[0])
	}
	if !strings.HasPrefix(lines[0], "powermatch_resource,") || !strings.Contains(lines[0], "lcoe=144") {
		t.Errorf("unexpected resource line %s", lines[0])
	}
	if strings.Contains(lines[1], "lcoe=") || strings.Contains(lines[1], "capacity_factor=") {
		t.Errorf("blank metrics must be omitted: %s", lines[1])
	}
	if !strings.HasPrefix(lines[2], "powermatch_totals,") || !strings.Contains(lines[2], "load_met=1") {
		t.Errorf("unexpected totals line %s", lines[2])
	}
}

func TestInfluxSink_RecordOptimise(t *testing.T) {
	var bodies []string
	srv := captureServer(&bodies)
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	ev := coremetrics.OptimiseEvent{
		RunID: "r2", Fitness: 72, Generations: 10, Evaluations: 220, Stop: "completed",
		Capacities: map[string]float64{"Wind": 300, "Gas": 50}, Time: time.Now(),
	}
	if err := sink.RecordOptimise(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	lines := strings.Split(bodies[0], "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 points, got %#v", lines)
	}
	if !strings.Contains(lines[1], "resource=Gas") || !strings.Contains(lines[2], "resource=Wind") {
		t.Errorf("capacities not sorted: %#v", lines)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
