package model

import (
	"sort"
)

// RawFacility holds the unparsed cells of a facility table row.
type RawFacility struct {
	Name       string
	Order      string
	Constraint string
	Capacity   string
	LCOE       string
	LCOECF     string
	Emissions  string
	Initial    string
}

// Facility is one dispatchable unit. Constraint references a Constraint by
// name; an empty reference means the facility is a plain generator.
type Facility struct {
	Name       string  `json:"name"`
	Order      int     `json:"order"`
	Constraint string  `json:"constraint"`
	Capacity   float64 `json:"capacity"`   // MW
	LCOE       float64 `json:"lcoe"`       // $/MWh
	LCOECF     float64 `json:"lcoe_cf"`    // capacity factor LCOE is priced at
	Emissions  float64 `json:"emissions"`  // tCO2e/MWh
	Initial    float64 `json:"initial"`    // MWh, storage only
}

// NewFacility builds a Facility from raw cells; every numeric field falls
// back to zero.
func NewFacility(raw RawFacility) Facility {
	return Facility{
		Name:       raw.Name,
		Order:      ParseInt(raw.Order, 0),
		Constraint: raw.Constraint,
		Capacity:   ParseFloat(raw.Capacity, 0),
		LCOE:       ParseFloat(raw.LCOE, 0),
		LCOECF:     ParseFloat(raw.LCOECF, 0),
		Emissions:  ParseFloat(raw.Emissions, 0),
		Initial:    ParseFloat(raw.Initial, 0),
	}
}

// WithCapacity returns a copy of the facility with the given capacity.
func (f Facility) WithCapacity(capacity float64) Facility {
	f.Capacity = capacity
	return f
}

// Pricing returns the cost and emission parameters of the facility.
func (f Facility) Pricing() Pricing {
	return Pricing{LCOE: f.LCOE, LCOECF: f.LCOECF, Emissions: f.Emissions}
}

// Pricing carries the parameters used to cost a resource.
type Pricing struct {
	LCOE      float64 `json:"lcoe"`
	LCOECF    float64 `json:"lcoe_cf"`
	Emissions float64 `json:"emissions"`
}

// DispatchOrder lists resource names in merit order. Resources not listed
// are excluded from dispatch.
type DispatchOrder []string

// Contains reports whether name is part of the order.
func (o DispatchOrder) Contains(name string) bool {
	for _, n := range o {
		if n == name {
			return true
		}
	}
	return false
}

// BuildOrder derives a dispatch order from facility Order fields. Facilities
// without capacity or with a negative order are left out; positive orders
// come first in ascending order, zero orders last. Equal orders are sorted
// by name so the result is stable.
func BuildOrder(facilities map[string]Facility) DispatchOrder {
	var ranked, zero []Facility
	for _, f := range facilities {
		if f.Capacity == 0 {
			continue
		}
		switch {
		case f.Order > 0:
			ranked = append(ranked, f)
		case f.Order == 0:
			zero = append(zero, f)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Order != ranked[j].Order {
			return ranked[i].Order < ranked[j].Order
		}
		return ranked[i].Name < ranked[j].Name
	})
	sort.Slice(zero, func(i, j int) bool { return zero[i].Name < zero[j].Name })
	order := make(DispatchOrder, 0, len(ranked)+len(zero))
	for _, f := range ranked {
		order = append(order, f.Name)
	}
	for _, f := range zero {
		order = append(order, f.Name)
	}
	return order
}
