package aggregate

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/powermatch/core/model"
)

// Resource is one dispatched or fixed series to be summarised.
type Resource struct {
	Name      string
	Capacity  float64
	Used      []float64
	Storage   bool
	Renewable bool
	// Pricing is nil when the resource has no facility row; such a
	// resource is never costed.
	Pricing *model.Pricing
}

// Input collects everything Summarise needs.
type Input struct {
	Resources   []Resource
	Residual    []float64
	Load        []float64
	CarbonPrice float64
}

// Row is the summary of one resource.
type Row struct {
	Name           string  `json:"name"`
	Capacity       float64 `json:"capacity"`
	Generation     float64 `json:"generation"`
	Charged        float64 `json:"charged,omitempty"`
	CapacityFactor Value   `json:"capacity_factor"`
	Cost           Value   `json:"cost"`
	LCOE           Value   `json:"lcoe"`
	Emissions      Value   `json:"emissions"`
	Renewable      bool    `json:"renewable"`
	Storage        bool    `json:"storage"`
}

// Totals are the system-wide figures across all rows.
type Totals struct {
	Capacity       float64 `json:"capacity"`
	Generation     float64 `json:"generation"`
	Cost           float64 `json:"cost"`
	Emissions      float64 `json:"emissions"`
	CapacityFactor Value   `json:"capacity_factor"`
	LCOE           Value   `json:"lcoe"`
	CarbonPrice    float64 `json:"carbon_price"`
	CarbonCost     Value   `json:"carbon_cost"`
	BlendedLCOE    Value   `json:"blended_lcoe"`
	RenewableShare Value   `json:"renewable_share"`
}

// LoadAnalysis compares the final residual with the load.
type LoadAnalysis struct {
	Total          float64 `json:"total"`
	Met            float64 `json:"met"`
	Shortfall      float64 `json:"shortfall"`
	ShortfallHours int     `json:"shortfall_hours"`
	Surplus        float64 `json:"surplus"`
	SurplusHours   int     `json:"surplus_hours"`
}

// MetFraction is load met over total load.
func (l LoadAnalysis) MetFraction() Value { return ratio(l.Met, l.Total) }

// ShortfallFraction is unmet load over total load.
func (l LoadAnalysis) ShortfallFraction() Value { return ratio(l.Shortfall, l.Total) }

// SurplusFraction is surplus energy over total load.
func (l LoadAnalysis) SurplusFraction() Value { return ratio(l.Surplus, l.Total) }

// FullyMet reports whether every hour of load was covered.
func (l LoadAnalysis) FullyMet() bool {
	return l.Total > 0 && l.Met >= l.Total
}

// Summary is the result of Summarise.
type Summary struct {
	Rows   []Row        `json:"rows"`
	Totals Totals       `json:"totals"`
	Load   LoadAnalysis `json:"load"`
}

// Row returns the row named name.
func (s *Summary) Row(name string) (Row, bool) {
	for _, r := range s.Rows {
		if r.Name == name {
			return r, true
		}
	}
	return Row{}, false
}

// Summarise computes per-resource rows, system totals and the load analysis.
// Metrics whose denominator is zero are left blank.
func Summarise(in Input) Summary {
	var (
		s         Summary
		renewable float64
	)
	s.Rows = make([]Row, 0, len(in.Resources))
	for _, res := range in.Resources {
		row := summariseResource(res)
		s.Totals.Capacity += res.Capacity
		s.Totals.Generation += row.Generation
		if row.Cost.OK {
			s.Totals.Cost += row.Cost.V
		}
		if row.Emissions.OK {
			s.Totals.Emissions += row.Emissions.V
		}
		if res.Renewable {
			renewable += row.Generation
		}
		s.Rows = append(s.Rows, row)
	}

	t := &s.Totals
	if t.Capacity > 0 {
		t.CapacityFactor = Of(t.Generation / t.Capacity / model.HoursPerYear)
	}
	t.LCOE = ratio(t.Cost, t.Generation)
	t.RenewableShare = ratio(renewable, t.Generation)
	if in.CarbonPrice > 0 {
		t.CarbonPrice = in.CarbonPrice
		cc := t.Emissions * in.CarbonPrice
		t.CarbonCost = Of(cc)
		t.BlendedLCOE = ratio(t.Cost+cc, t.Generation)
	}

	s.Load = analyseLoad(in.Residual, in.Load)
	return s
}

func summariseResource(res Resource) Row {
	row := Row{
		Name:      res.Name,
		Capacity:  res.Capacity,
		Renewable: res.Renewable,
		Storage:   res.Storage,
	}
	if res.Storage {
		// Storage generation is discharge only; charging is kept apart.
		for _, u := range res.Used {
			if u > 0 {
				row.Generation += u
			} else {
				row.Charged -= u
			}
		}
	} else if len(res.Used) > 0 {
		row.Generation = floats.Sum(res.Used)
	}
	if res.Capacity > 0 {
		row.CapacityFactor = Of(row.Generation / (res.Capacity * model.HoursPerYear))
	}
	p := res.Pricing
	if p == nil {
		return row
	}
	if p.LCOE > 0 {
		cost := p.LCOE * p.LCOECF * model.HoursPerYear * res.Capacity
		row.Cost = Of(cost)
		if res.Capacity > 0 && row.CapacityFactor.V > 0 {
			row.LCOE = Of(cost / model.HoursPerYear / row.CapacityFactor.V / res.Capacity)
		}
	}
	if p.Emissions > 0 {
		row.Emissions = Of(row.Generation * p.Emissions)
	}
	return row
}

func analyseLoad(residual, load []float64) LoadAnalysis {
	var la LoadAnalysis
	if len(load) > 0 {
		la.Total = floats.Sum(load)
	}
	for _, r := range residual {
		switch {
		case r > 0:
			la.Shortfall += r
			la.ShortfallHours++
		case r < 0:
			la.Surplus -= r
			la.SurplusHours++
		}
	}
	la.Met = la.Total - la.Shortfall
	return la
}

func ratio(num, den float64) Value {
	if den == 0 {
		return Blank
	}
	return Of(num / den)
}
