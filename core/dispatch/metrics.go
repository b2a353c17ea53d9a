package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	simulationLatency prometheus.Histogram
	simulations       prometheus.Counter
	simulationErrors  prometheus.Counter
	unitsDispatched   *prometheus.CounterVec
	shortfallHours    prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Histogram, prometheus.Counter, prometheus.Counter, *prometheus.CounterVec, prometheus.Histogram) {
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "powermatch_dispatch_seconds",
			Help:    "Duration of one merit-order pass over the dispatch order",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)
	sims := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "powermatch_dispatch_total",
			Help: "Number of merit-order passes",
		},
	)
	errs := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "powermatch_dispatch_errors_total",
			Help: "Number of merit-order passes rejected by invalid storage parameters",
		},
	)
	units := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "powermatch_dispatch_units_total",
			Help: "Number of units dispatched",
		},
		[]string{"kind"},
	)
	short := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "powermatch_dispatch_shortfall_hours",
			Help:    "Hours left with unmet load after a pass",
			Buckets: []float64{0, 1, 10, 100, 1000, 8760},
		},
	)
	return lat, sims, errs, units, short
}

func init() {
	simulationLatency, simulations, simulationErrors, unitsDispatched, shortfallHours = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(simulationLatency, simulations, simulationErrors, unitsDispatched, shortfallHours)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	simulationLatency, simulations, simulationErrors, unitsDispatched, shortfallHours = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

func unitKind(u Unit) string {
	if u.Storage != nil {
		return "storage"
	}
	return "generator"
}

func observe(res *Result, seconds float64) {
	simulations.Inc()
	simulationLatency.Observe(seconds)
	hours := 0
	for _, r := range res.Residual {
		if r > 0 {
			hours++
		}
	}
	shortfallHours.Observe(float64(hours))
}
