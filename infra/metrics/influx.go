package metrics

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/powermatch/core/aggregate"
	coremetrics "github.com/kilianp07/powermatch/core/metrics"
	"github.com/kilianp07/powermatch/infra/logger"
)

// InfluxSink writes run summaries and optimiser progress to an InfluxDB
// instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordSummary writes one point per resource row plus one for the totals.
func (s *InfluxSink) RecordSummary(ev coremetrics.SummaryEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Summary.Rows)+1)
	for _, r := range ev.Summary.Rows {
		p := write.NewPointWithMeasurement("powermatch_resource").
			AddTag("run_id", ev.RunID).
			AddTag("kind", string(ev.Kind)).
			AddTag("resource", r.Name).
			AddTag("storage", strconv.FormatBool(r.Storage)).
			AddTag("renewable", strconv.FormatBool(r.Renewable)).
			AddField("capacity_mw", round3(r.Capacity)).
			AddField("generation_mwh", round3(r.Generation))
		addValue(p, "capacity_factor", r.CapacityFactor)
		addValue(p, "cost", r.Cost)
		addValue(p, "lcoe", r.LCOE)
		addValue(p, "emissions_t", r.Emissions)
		points = append(points, p.SetTime(ev.Time))
	}
	t, la := ev.Summary.Totals, ev.Summary.Load
	p := write.NewPointWithMeasurement("powermatch_totals").
		AddTag("run_id", ev.RunID).
		AddTag("kind", string(ev.Kind)).
		AddField("capacity_mw", round3(t.Capacity)).
		AddField("generation_mwh", round3(t.Generation)).
		AddField("cost", round3(t.Cost)).
		AddField("emissions_t", round3(t.Emissions)).
		AddField("load_mwh", round3(la.Total)).
		AddField("shortfall_mwh", round3(la.Shortfall)).
		AddField("shortfall_hours", la.ShortfallHours).
		AddField("surplus_mwh", round3(la.Surplus)).
		AddField("duration_s", round3(ev.Duration.Seconds()))
	addValue(p, "lcoe", t.LCOE)
	addValue(p, "blended_lcoe", t.BlendedLCOE)
	addValue(p, "renewable_share", t.RenewableShare)
	addValue(p, "load_met", la.MetFraction())
	points = append(points, p.SetTime(ev.Time))
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordGeneration writes the convergence of one optimiser generation.
func (s *InfluxSink) RecordGeneration(ev coremetrics.GenerationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("powermatch_generation").
		AddTag("run_id", ev.RunID).
		AddField("generation", ev.Generation).
		AddField("best", round3(ev.Best)).
		AddField("best_ever", round3(ev.BestEver)).
		AddField("mean", round3(ev.Mean)).
		AddField("evaluations", ev.Evaluations).
		AddField("elapsed_s", round3(ev.Elapsed.Seconds())).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordOptimise writes the optimisation outcome and the chosen capacities.
func (s *InfluxSink) RecordOptimise(ev coremetrics.OptimiseEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	points := []*write.Point{write.NewPointWithMeasurement("powermatch_optimise").
		AddTag("run_id", ev.RunID).
		AddTag("stop", ev.Stop).
		AddField("fitness", round3(ev.Fitness)).
		AddField("generations", ev.Generations).
		AddField("evaluations", ev.Evaluations).
		AddField("warnings", ev.Warnings).
		AddField("duration_s", round3(ev.Duration.Seconds())).
		SetTime(ev.Time)}
	names := make([]string, 0, len(ev.Capacities))
	for n := range ev.Capacities {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		points = append(points, write.NewPointWithMeasurement("powermatch_optimal_capacity").
			AddTag("run_id", ev.RunID).
			AddTag("resource", n).
			AddField("capacity_mw", round3(ev.Capacities[n])).
			SetTime(ev.Time))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// addValue sets field only when v is defined.
func addValue(p *write.Point, field string, v aggregate.Value) {
	if v.OK {
		p.AddField(field, round3(v.V))
	}
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
