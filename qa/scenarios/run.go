package scenarios

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/powermatch/core/aggregate"
	"github.com/kilianp07/powermatch/core/powermatch"
)

// Outcome is what a scenario run produced.
type Outcome struct {
	Summary aggregate.Summary
	// Fitness is set for optimisation scenarios.
	Fitness *float64
}

// Run simulates sc: a single pass, or an optimisation when sc.Optimise is set.
func Run(ctx context.Context, sc *Scenario) (*Outcome, error) {
	in, err := sc.Inputs()
	if err != nil {
		return nil, err
	}
	s, err := powermatch.NewScenario(in)
	if err != nil {
		return nil, err
	}
	if sc.Optimise == nil {
		rep, err := s.Run(sc.Params.ToModel(), nil)
		if err != nil {
			return nil, err
		}
		return &Outcome{Summary: rep.Summary}, nil
	}
	rep, err := s.Optimise(ctx, sc.Params.ToModel(), sc.Optimise.ToModel(), nil)
	if err != nil {
		return nil, err
	}
	f := rep.Fitness
	return &Outcome{Summary: rep.Summary, Fitness: &f}, nil
}

// Check compares o against the expectations and lists every mismatch.
func (e Expected) Check(o *Outcome) []string {
	tol := e.Tolerance
	if tol == 0 {
		tol = 1e-6
	}
	var out []string
	near := func(what string, want float64, got aggregate.Value) {
		if !got.OK {
			out = append(out, fmt.Sprintf("%s: want %v got blank", what, want))
			return
		}
		if math.Abs(got.V-want) > tol {
			out = append(out, fmt.Sprintf("%s: want %v got %v", what, want, got.V))
		}
	}
	if e.LoadMet != nil {
		near("load met", *e.LoadMet, o.Summary.Load.MetFraction())
	}
	if e.LCOE != nil {
		near("lcoe", *e.LCOE, o.Summary.Totals.LCOE)
	}
	if e.MaxFitness != nil {
		if o.Fitness == nil {
			out = append(out, "fitness: scenario did not optimise")
		} else if *o.Fitness > *e.MaxFitness+tol {
			out = append(out, fmt.Sprintf("fitness: want <= %v got %v", *e.MaxFitness, *o.Fitness))
		}
	}
	names := make([]string, 0, len(e.Generation))
	for n := range e.Generation {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		row, ok := o.Summary.Row(n)
		if !ok {
			out = append(out, fmt.Sprintf("%s: not in summary", n))
			continue
		}
		near(n+" generation", e.Generation[n], aggregate.Value{V: row.Generation, OK: true})
	}
	return out
}
