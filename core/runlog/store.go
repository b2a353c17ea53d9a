package runlog

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/powermatch/core/aggregate"
	"github.com/kilianp07/powermatch/core/encoder"
	"github.com/kilianp07/powermatch/core/metrics"
	"github.com/kilianp07/powermatch/core/powermatch"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Record captures one finished run.
type Record struct {
	ID        string            `json:"id"`
	Kind      metrics.RunKind   `json:"kind"`
	Timestamp time.Time         `json:"timestamp"`
	Tables    string            `json:"tables,omitempty"`
	Hourly    string            `json:"hourly,omitempty"`
	Params    powermatch.Params `json:"params"`
	Summary   aggregate.Summary `json:"summary"`
	// Optimise is set for optimisation runs.
	Optimise *Optimise    `json:"optimise,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
	Elapsed  JSONDuration `json:"elapsed"`
}

// Optimise holds the optimiser outcome of a run.
type Optimise struct {
	Seed        int64              `json:"seed"`
	Chromosome  string             `json:"chromosome"`
	Capacities  encoder.Capacities `json:"capacities"`
	Fitness     float64            `json:"fitness"`
	Generations int                `json:"generations"`
	Evaluations int                `json:"evaluations"`
	Stop        string             `json:"stop"`
	BestTrace   []float64          `json:"best_trace"`
}

// JSONDuration marshals as a Go duration string.
type JSONDuration time.Duration

func (d JSONDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *JSONDuration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = JSONDuration(v)
	return nil
}

// Query defines filters for listing records. Zero fields match everything.
type Query struct {
	Start time.Time
	End   time.Time
	Kind  metrics.RunKind
	// Limit keeps the newest Limit records when positive.
	Limit int
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	return q.Kind == "" || r.Kind == q.Kind
}

func (q Query) limit(recs []Record) []Record {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// Store persists Records and supports querying. Query results are ordered
// oldest first.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Close() error
}
