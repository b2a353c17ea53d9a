package powermatch

import (
	"fmt"

	"github.com/kilianp07/powermatch/core/aggregate"
	"github.com/kilianp07/powermatch/core/dispatch"
	"github.com/kilianp07/powermatch/core/model"
)

// Evaluation is one simulated year for a set of capacities.
type Evaluation struct {
	Summary  aggregate.Summary
	Load     []float64
	Residual []float64
	// Renewables holds the scaled renewable series, in column order.
	Renewables []aggregate.Resource
	Dispatch   *dispatch.Result
	Warnings   []string
}

// Evaluate simulates the scenario with the given capacities. Resources not
// listed in capacities keep their table or nameplate capacity scaled by
// params.Adjustments.
func (s *Scenario) Evaluate(capacities map[string]float64, params Params) (*Evaluation, error) {
	return s.evaluate(capacities, params, nil)
}

func (s *Scenario) evaluate(capacities map[string]float64, params Params, progress func(dispatch.UnitProgress)) (*Evaluation, error) {
	params.SetDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	capacity := func(name string, table float64) float64 {
		if c, ok := capacities[name]; ok {
			return c
		}
		return table * params.adjustment(name)
	}

	n := s.hourly.Hours()
	ev := &Evaluation{Load: make([]float64, n)}
	for h, l := range s.hourly.Load {
		ev.Load[h] = l * params.LoadMultiplier
	}
	residual := append([]float64(nil), ev.Load...)

	var resources []aggregate.Resource
	for _, r := range s.renewables {
		c := capacity(r.name, r.nameplate)
		scale := c / r.nameplate
		used := make([]float64, n)
		for h, v := range r.values {
			used[h] = v * scale
			residual[h] -= used[h]
		}
		res := aggregate.Resource{Name: r.name, Capacity: c, Used: used, Renewable: true, Pricing: s.pricing(r.name)}
		ev.Renewables = append(ev.Renewables, res)
		resources = append(resources, res)
	}

	units, pricing, skipped, err := s.units(capacity)
	if err != nil {
		return nil, err
	}
	for _, name := range skipped {
		ev.Warnings = append(ev.Warnings, fmt.Sprintf("%s is in the dispatch order but not in the facility table, skipped", name))
	}
	d, err := dispatch.Simulate(residual, units, dispatch.Options{Detail: params.Detail, Progress: progress})
	if err != nil {
		return nil, err
	}
	for i, u := range d.Units {
		resources = append(resources, aggregate.Resource{
			Name:     u.Name,
			Capacity: u.Capacity,
			Used:     u.Used,
			Storage:  u.Storage,
			Pricing:  pricing[i],
		})
	}
	ev.Dispatch = d
	ev.Residual = d.Residual
	ev.Summary = aggregate.Summarise(aggregate.Input{
		Resources:   resources,
		Residual:    d.Residual,
		Load:        ev.Load,
		CarbonPrice: params.CarbonPrice,
	})
	return ev, nil
}

// units resolves the dispatch order against the facility table. Names that
// are renewable columns are reported through those columns instead.
func (s *Scenario) units(capacity func(string, float64) float64) ([]dispatch.Unit, []*model.Pricing, []string, error) {
	var (
		units   []dispatch.Unit
		pricing []*model.Pricing
		skipped []string
	)
	for _, name := range s.order {
		if s.isRenewable(name) {
			continue
		}
		f, ok := s.tables.Facilities[name]
		if !ok {
			skipped = append(skipped, name)
			continue
		}
		u := dispatch.Unit{Name: name, Capacity: capacity(name, f.Capacity)}
		if c := s.tables.ConstraintFor(f); c != nil && c.IsStorage() {
			sp, err := dispatch.NewStorageParams(u.Capacity, f.Initial, *c)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("facility %s: %w", name, err)
			}
			u.Storage = &sp
		}
		p := f.Pricing()
		units = append(units, u)
		pricing = append(pricing, &p)
	}
	return units, pricing, skipped, nil
}
