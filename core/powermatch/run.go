package powermatch

import (
	"time"

	"github.com/kilianp07/powermatch/core/aggregate"
	"github.com/kilianp07/powermatch/core/dispatch"
	"github.com/kilianp07/powermatch/core/model"
	"github.com/kilianp07/powermatch/core/optimize"
)

// Stage identifies what a Progress snapshot reports on.
type Stage string

const (
	StageDispatch Stage = "dispatch"
	StageOptimise Stage = "optimise"
)

// Progress is an immutable snapshot passed to a ProgressFunc.
type Progress struct {
	Stage Stage `json:"stage"`
	// Unit, Index and Total are set for StageDispatch.
	Unit  string `json:"unit,omitempty"`
	Index int    `json:"index,omitempty"`
	Total int    `json:"total,omitempty"`
	// Generation is set for StageOptimise.
	Generation *optimize.Progress `json:"generation,omitempty"`
}

// ProgressFunc receives progress snapshots. It is called from the
// simulating goroutine and must not block.
type ProgressFunc func(Progress)

// Series is one hourly series of a detailed run.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// StageShortfall is the unmet load remaining after one dispatched unit.
type StageShortfall struct {
	Unit      string  `json:"unit"`
	Shortfall float64 `json:"shortfall"`
	Hours     int     `json:"hours"`
}

// Detail holds the hourly series of a detailed run.
type Detail struct {
	Load       []float64        `json:"load"`
	Generation []Series         `json:"generation"`
	Balance    []Series         `json:"balance,omitempty"`
	After      []Series         `json:"after"`
	Stages     []StageShortfall `json:"stages"`
	Residual   []float64        `json:"residual"`
}

// Report is the result of a single Powermatch pass.
type Report struct {
	Params   Params              `json:"params"`
	Order    model.DispatchOrder `json:"order"`
	Summary  aggregate.Summary   `json:"summary"`
	Detail   *Detail             `json:"detail,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
	Elapsed  time.Duration       `json:"elapsed"`
}

// Run performs one pass with table capacities scaled by params.Adjustments.
// progress, if not nil, is called once per dispatched unit.
func (s *Scenario) Run(params Params, progress ProgressFunc) (*Report, error) {
	start := time.Now()
	params.SetDefaults()
	var unitProgress func(dispatch.UnitProgress)
	if progress != nil {
		unitProgress = func(p dispatch.UnitProgress) {
			progress(Progress{Stage: StageDispatch, Unit: p.Unit, Index: p.Index, Total: p.Total})
		}
	}
	ev, err := s.evaluate(nil, params, unitProgress)
	if err != nil {
		return nil, err
	}
	rep := &Report{
		Params:   params,
		Order:    s.Order(),
		Summary:  ev.Summary,
		Warnings: ev.Warnings,
	}
	if params.Detail {
		rep.Detail = buildDetail(ev)
	}
	for _, w := range rep.Warnings {
		s.log.Warnf("powermatch: %s", w)
	}
	rep.Elapsed = time.Since(start)
	s.log.Infof("powermatch pass: %d resources, load met %.1f%%, LCOE %s (%s)",
		len(rep.Summary.Rows), 100*rep.Summary.Load.MetFraction().Or(0), rep.Summary.Totals.LCOE, rep.Elapsed)
	return rep, nil
}

func buildDetail(ev *Evaluation) *Detail {
	d := &Detail{Load: ev.Load, Residual: ev.Residual}
	for _, r := range ev.Renewables {
		d.Generation = append(d.Generation, Series{Name: r.Name, Values: r.Used})
	}
	for _, u := range ev.Dispatch.Units {
		if u.Used != nil {
			d.Generation = append(d.Generation, Series{Name: u.Name, Values: u.Used})
		}
		if u.Carry != nil {
			d.Balance = append(d.Balance, Series{Name: u.Name, Values: u.Carry})
		}
		if u.After == nil {
			continue
		}
		d.After = append(d.After, Series{Name: u.Name, Values: u.After})
		st := StageShortfall{Unit: u.Name}
		for _, r := range u.After {
			if r > 0 {
				st.Shortfall += r
				st.Hours++
			}
		}
		d.Stages = append(d.Stages, st)
	}
	return d
}
