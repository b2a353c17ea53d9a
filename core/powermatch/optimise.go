package powermatch

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/powermatch/core/aggregate"
	"github.com/kilianp07/powermatch/core/encoder"
	"github.com/kilianp07/powermatch/core/optimize"
)

// OptimiseReport is the result of a capacity optimisation.
type OptimiseReport struct {
	Params      Params              `json:"params"`
	Config      optimize.Config     `json:"config"`
	Chromosome  string              `json:"chromosome"`
	Capacities  encoder.Capacities  `json:"capacities"`
	Fitness     float64             `json:"fitness"`
	Trace       []float64           `json:"trace"`
	BestTrace   []float64           `json:"best_trace"`
	Generations int                 `json:"generations"`
	Evaluations int                 `json:"evaluations"`
	Stop        optimize.StopReason `json:"stop"`
	Summary     aggregate.Summary   `json:"summary"`
	Warnings    []string            `json:"warnings,omitempty"`
	Elapsed     time.Duration       `json:"elapsed"`
}

// Layout builds the chromosome layout: renewable columns first, then the
// dispatch order. Renewable columns search on top of their nameplate.
func (s *Scenario) Layout() (*encoder.Layout, error) {
	var entries []encoder.Entry
	for _, r := range s.renewables {
		entries = append(entries, encoder.Entry{
			Name:  r.name,
			Spec:  s.tables.Spec(r.name),
			Base:  r.nameplate,
			Fixed: r.nameplate,
		})
	}
	for _, name := range s.order {
		if s.isRenewable(name) {
			continue
		}
		f, ok := s.tables.Facilities[name]
		if !ok {
			continue
		}
		entries = append(entries, encoder.Entry{Name: name, Spec: s.tables.Spec(name), Fixed: f.Capacity})
	}
	return encoder.NewLayout(entries)
}

// Fitness returns the optimiser objective for layout: the system LCOE, or
// penalty when any load is left unmet or nothing is generated.
func (s *Scenario) Fitness(layout *encoder.Layout, params Params, penalty float64) optimize.Fitness {
	return optimize.FitnessFunc(func(ctx context.Context, c encoder.Chromosome) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		caps, err := layout.Decode(c)
		if err != nil {
			return 0, err
		}
		ev, err := s.evaluate(caps.Map(), params, nil)
		if err != nil {
			return 0, err
		}
		return score(ev.Summary, penalty), nil
	})
}

func score(sum aggregate.Summary, penalty float64) float64 {
	if !sum.Load.FullyMet() || !sum.Totals.LCOE.OK {
		return penalty
	}
	return sum.Totals.LCOE.V
}

// Optimise searches capacities that minimise system LCOE while meeting the
// whole load. params.Adjustments are ignored; only the load multiplier
// and carbon price apply. The best chromosome is re-evaluated to produce the
// returned summary.
func (s *Scenario) Optimise(ctx context.Context, params Params, cfg optimize.Config, progress ProgressFunc) (*OptimiseReport, error) {
	params.SetDefaults()
	params.Adjustments = nil
	params.Detail = false
	if err := params.Validate(); err != nil {
		return nil, err
	}
	layout, err := s.Layout()
	if err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	opts := []optimize.Option{optimize.WithLogger(s.log)}
	if progress != nil {
		opts = append(opts, optimize.WithProgress(func(p optimize.Progress) {
			progress(Progress{Stage: StageOptimise, Generation: &p})
		}))
	}
	opt := optimize.New(cfg, s.Fitness(layout, params, cfg.Penalty), opts...)
	s.log.Infof("optimising %d genes over %d resources (population %d, generations %d, seed %d)",
		layout.Len(), len(layout.Segments()), opt.Config().PopulationSize, opt.Config().Generations, opt.Config().Seed)

	res, err := opt.Run(ctx, layout.Len())
	if err != nil {
		return nil, fmt.Errorf("optimise: %w", err)
	}
	caps, err := layout.Decode(res.Best)
	if err != nil {
		return nil, err
	}
	ev, err := s.evaluate(caps.Map(), params, nil)
	if err != nil {
		return nil, err
	}
	return &OptimiseReport{
		Params:      params,
		Config:      opt.Config(),
		Chromosome:  res.Best.String(),
		Capacities:  caps,
		Fitness:     res.BestFitness,
		Trace:       res.Trace,
		BestTrace:   res.BestTrace,
		Generations: res.Generations,
		Evaluations: res.Evaluations,
		Stop:        res.Stop,
		Summary:     ev.Summary,
		Warnings:    append(res.Warnings, ev.Warnings...),
		Elapsed:     res.Elapsed,
	}, nil
}
