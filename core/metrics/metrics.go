package metrics

import (
	"time"

	"github.com/kilianp07/powermatch/core/aggregate"
)

// RunKind distinguishes single passes from optimisations.
type RunKind string

const (
	KindPowermatch RunKind = "powermatch"
	KindOptimise   RunKind = "optimise"
)

// SummaryEvent carries the summary of a finished simulation.
type SummaryEvent struct {
	RunID    string
	Kind     RunKind
	Summary  aggregate.Summary
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records run summaries for observability purposes.
type MetricsSink interface {
	RecordSummary(ev SummaryEvent) error
}

// GenerationEvent is one scored optimiser generation.
type GenerationEvent struct {
	RunID       string
	Generation  int
	Best        float64
	BestEver    float64
	Mean        float64
	Evaluations int
	Elapsed     time.Duration
	Time        time.Time
}

// GenerationRecorder records optimiser generations.
type GenerationRecorder interface {
	RecordGeneration(ev GenerationEvent) error
}

// OptimiseEvent describes a finished optimisation.
type OptimiseEvent struct {
	RunID       string
	Fitness     float64
	Generations int
	Evaluations int
	Stop        string
	Capacities  map[string]float64
	Warnings    int
	Duration    time.Duration
	Time        time.Time
}

// OptimiseRecorder records finished optimisations.
type OptimiseRecorder interface {
	RecordOptimise(ev OptimiseEvent) error
}

// DispatchStepEvent is emitted after each unit of a single pass.
type DispatchStepEvent struct {
	RunID string
	Unit  string
	Index int
	Total int
	Time  time.Time
}

// DispatchStepRecorder records single-pass unit progress.
type DispatchStepRecorder interface {
	RecordDispatchStep(ev DispatchStepEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSummary(SummaryEvent) error           { return nil }
func (NopSink) RecordGeneration(GenerationEvent) error     { return nil }
func (NopSink) RecordOptimise(OptimiseEvent) error         { return nil }
func (NopSink) RecordDispatchStep(DispatchStepEvent) error { return nil }

// Event is any of the event types above. It is what StartEventCollector
// consumes from a bus.
type Event interface {
	eventTime() time.Time
}

func (e SummaryEvent) eventTime() time.Time      { return e.Time }
func (e GenerationEvent) eventTime() time.Time   { return e.Time }
func (e OptimiseEvent) eventTime() time.Time     { return e.Time }
func (e DispatchStepEvent) eventTime() time.Time { return e.Time }

// Record forwards ev to the matching recorder of sink, if it has one.
func Record(sink MetricsSink, ev Event) error {
	switch e := ev.(type) {
	case SummaryEvent:
		return sink.RecordSummary(e)
	case GenerationEvent:
		if r, ok := sink.(GenerationRecorder); ok {
			return r.RecordGeneration(e)
		}
	case OptimiseEvent:
		if r, ok := sink.(OptimiseRecorder); ok {
			return r.RecordOptimise(e)
		}
	case DispatchStepEvent:
		if r, ok := sink.(DispatchStepRecorder); ok {
			return r.RecordDispatchStep(e)
		}
	}
	return nil
}
