package powermatch

import (
	"errors"
	"fmt"

	"github.com/kilianp07/powermatch/core/logger"
	"github.com/kilianp07/powermatch/core/model"
)

// LoadKey is the adjustment key that scales the load series.
const LoadKey = "Load"

// Inputs are the tables and hourly data a Scenario is built from.
type Inputs struct {
	Tables model.Tables
	Hourly *model.HourlyData
	Logger logger.Logger
}

// Params are the per-run parameters.
type Params struct {
	CarbonPrice    float64 `json:"carbon_price"`
	LoadMultiplier float64 `json:"load_multiplier"`
	// Adjustments scale the capacity of named renewable columns and
	// facilities for a single pass. Missing names default to 1.
	Adjustments map[string]float64 `json:"adjustments,omitempty"`
	Detail      bool               `json:"detail"`
}

// SetDefaults fills zero values.
func (p *Params) SetDefaults() {
	if p.LoadMultiplier == 0 {
		p.LoadMultiplier = 1
	}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if p.CarbonPrice < 0 {
		return fmt.Errorf("carbon price must be >= 0, got %v", p.CarbonPrice)
	}
	if p.LoadMultiplier < 0 {
		return fmt.Errorf("load multiplier must be >= 0, got %v", p.LoadMultiplier)
	}
	for k, v := range p.Adjustments {
		if v < 0 {
			return fmt.Errorf("adjustment %s must be >= 0, got %v", k, v)
		}
	}
	return nil
}

func (p Params) adjustment(name string) float64 {
	if v, ok := p.Adjustments[name]; ok {
		return v
	}
	return 1
}

// renewable is a fixed generation column with a positive nameplate.
type renewable struct {
	name      string
	tech      model.Technology
	nameplate float64
	values    []float64
}

// Scenario is a validated set of inputs ready to be simulated many times.
// It is read-only after construction and safe for concurrent use.
type Scenario struct {
	tables     model.Tables
	hourly     *model.HourlyData
	order      model.DispatchOrder
	renewables []renewable
	log        logger.Logger
}

// NewScenario validates the inputs and resolves the dispatch order.
func NewScenario(in Inputs) (*Scenario, error) {
	if in.Hourly == nil {
		return nil, model.ErrNoLoad
	}
	if err := in.Hourly.Validate(); err != nil {
		return nil, fmt.Errorf("hourly data: %w", err)
	}
	if err := in.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("tables: %w", err)
	}
	s := &Scenario{
		tables: in.Tables,
		hourly: in.Hourly,
		order:  in.Tables.DispatchOrder(),
		log:    logger.OrNop(in.Logger),
	}
	for _, c := range in.Hourly.Columns {
		if c.Capacity <= 0 {
			s.log.Debugf("column %s has no capacity, ignored", c.Name())
			continue
		}
		s.renewables = append(s.renewables, renewable{
			name:      c.Name(),
			tech:      c.Tech,
			nameplate: c.Capacity,
			values:    c.Values,
		})
	}
	if len(s.order) == 0 && len(s.renewables) == 0 {
		return nil, errors.New("scenario has neither renewable columns nor dispatchable facilities")
	}
	return s, nil
}

// Order returns the effective dispatch order.
func (s *Scenario) Order() model.DispatchOrder {
	return append(model.DispatchOrder(nil), s.order...)
}

// Hours returns the length of the hourly series.
func (s *Scenario) Hours() int { return s.hourly.Hours() }

// Renewables returns the renewable column names with their nameplates.
func (s *Scenario) Renewables() map[string]float64 {
	m := make(map[string]float64, len(s.renewables))
	for _, r := range s.renewables {
		m[r.name] = r.nameplate
	}
	return m
}

func (s *Scenario) isRenewable(name string) bool {
	for _, r := range s.renewables {
		if r.name == name {
			return true
		}
	}
	return false
}

func (s *Scenario) pricing(name string) *model.Pricing {
	f, ok := s.tables.Facilities[name]
	if !ok {
		return nil
	}
	p := f.Pricing()
	return &p
}
