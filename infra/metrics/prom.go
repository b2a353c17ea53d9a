package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/powermatch/core/metrics"
)

// PromSink records runs and optimiser progress in Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	cf          *prometheus.GaugeVec
	generation  *prometheus.GaugeVec
	lcoe        prometheus.Gauge
	loadMet     prometheus.Gauge
	best        prometheus.Gauge
	bestEver    prometheus.Gauge
	generations prometheus.Gauge
	evaluations prometheus.Counter
}

// NewPromSink registers metrics on the default Prometheus registerer.
// The /metrics server is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var err error
	s := &PromSink{}
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "powermatch_runs_total",
		Help: "Completed simulation runs",
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "powermatch_run_duration_seconds",
		Help:    "Wall time of a run",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	if s.cf, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "powermatch_resource_capacity_factor",
		Help: "Capacity factor of each resource in the last run",
	}, []string{"resource"})); err != nil {
		return nil, err
	}
	if s.generation, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "powermatch_resource_generation_mwh",
		Help: "Annual generation of each resource in the last run",
	}, []string{"resource"})); err != nil {
		return nil, err
	}
	if s.lcoe, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powermatch_system_lcoe",
		Help: "System LCOE of the last run in $/MWh",
	})); err != nil {
		return nil, err
	}
	if s.loadMet, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powermatch_load_met_ratio",
		Help: "Share of load met in the last run",
	})); err != nil {
		return nil, err
	}
	if s.best, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powermatch_optimise_generation_best",
		Help: "Best fitness of the latest generation",
	})); err != nil {
		return nil, err
	}
	if s.bestEver, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powermatch_optimise_best_ever",
		Help: "Best fitness found so far",
	})); err != nil {
		return nil, err
	}
	if s.generations, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powermatch_optimise_generation",
		Help: "Index of the latest scored generation",
	})); err != nil {
		return nil, err
	}
	if s.evaluations, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "powermatch_optimise_evaluations_total",
		Help: "Fitness evaluations performed",
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSummary updates the per-resource and system gauges.
func (s *PromSink) RecordSummary(ev coremetrics.SummaryEvent) error {
	kind := string(ev.Kind)
	s.runs.WithLabelValues(kind).Inc()
	s.duration.WithLabelValues(kind).Observe(ev.Duration.Seconds())
	for _, r := range ev.Summary.Rows {
		s.generation.WithLabelValues(r.Name).Set(r.Generation)
		if r.CapacityFactor.OK {
			s.cf.WithLabelValues(r.Name).Set(r.CapacityFactor.V)
		}
	}
	if ev.Summary.Totals.LCOE.OK {
		s.lcoe.Set(ev.Summary.Totals.LCOE.V)
	}
	if met := ev.Summary.Load.MetFraction(); met.OK {
		s.loadMet.Set(met.V)
	}
	return nil
}

// RecordGeneration tracks optimiser convergence.
func (s *PromSink) RecordGeneration(ev coremetrics.GenerationEvent) error {
	s.best.Set(ev.Best)
	s.bestEver.Set(ev.BestEver)
	s.generations.Set(float64(ev.Generation))
	return nil
}

// RecordOptimise adds the run's evaluations to the counter.
func (s *PromSink) RecordOptimise(ev coremetrics.OptimiseEvent) error {
	s.evaluations.Add(float64(ev.Evaluations))
	s.bestEver.Set(ev.Fitness)
	return nil
}
