package model

import (
	"errors"
	"fmt"
)

// Category classifies how a resource is dispatched.
type Category int

const (
	CategoryGenerator Category = iota
	CategoryStorage
)

// ParseCategory maps an external category label to a Category. Only
// "Storage" selects storage behaviour; every other label is a generator.
func ParseCategory(label string) Category {
	if label == "Storage" {
		return CategoryStorage
	}
	return CategoryGenerator
}

// String returns the external label of the category.
func (c Category) String() string {
	switch c {
	case CategoryStorage:
		return "Storage"
	default:
		return "Generator"
	}
}

// ErrInvalidLoss indicates a loss fraction outside [0,1).
var ErrInvalidLoss = errors.New("loss fraction must be in [0,1)")

// RawConstraint holds the unparsed cells of a constraint table row.
type RawConstraint struct {
	Name          string
	Category      string
	CapacityMin   string
	CapacityMax   string
	RampUpMax     string
	RampDownMax   string
	RechargeMax   string
	RechargeLoss  string
	DischargeMax  string
	DischargeLoss string
	ParasiticLoss string
}

// Constraint bounds one category of resource. Capacity, recharge and
// discharge limits are fractions of nameplate capacity; losses are fractions
// of energy moved; ParasiticLoss is a daily self-discharge fraction.
type Constraint struct {
	Name          string   `json:"name"`
	Label         string   `json:"category"`
	Category      Category `json:"-"`
	CapacityMin   float64  `json:"capacity_min"`
	CapacityMax   float64  `json:"capacity_max"`
	RampUpMax     float64  `json:"rampup_max"` // parsed, not enforced by dispatch
	RampDownMax   float64  `json:"rampdown_max"`
	RechargeMax   float64  `json:"recharge_max"`
	RechargeLoss  float64  `json:"recharge_loss"`
	DischargeMax  float64  `json:"discharge_max"`
	DischargeLoss float64  `json:"discharge_loss"`
	ParasiticLoss float64  `json:"parasitic_loss"`
}

// NewConstraint builds a Constraint from raw cells. Malformed numbers fall
// back to permissive defaults: minimum and losses 0, maxima 1.
func NewConstraint(raw RawConstraint) Constraint {
	return Constraint{
		Name:          raw.Name,
		Label:         raw.Category,
		Category:      ParseCategory(raw.Category),
		CapacityMin:   ParseFloat(raw.CapacityMin, 0),
		CapacityMax:   ParseFloat(raw.CapacityMax, 1),
		RampUpMax:     ParseFloat(raw.RampUpMax, 1),
		RampDownMax:   ParseFloat(raw.RampDownMax, 1),
		RechargeMax:   ParseFloat(raw.RechargeMax, 1),
		RechargeLoss:  ParseFloat(raw.RechargeLoss, 0),
		DischargeMax:  ParseFloat(raw.DischargeMax, 1),
		DischargeLoss: ParseFloat(raw.DischargeLoss, 0),
		ParasiticLoss: ParseFloat(raw.ParasiticLoss, 0),
	}
}

// IsStorage reports whether the constraint describes a storage class.
func (c Constraint) IsStorage() bool { return c.Category == CategoryStorage }

// Validate rejects loss fractions that would make recharge or discharge
// arithmetic divide by zero or change sign.
func (c Constraint) Validate() error {
	losses := []struct {
		field string
		v     float64
	}{
		{"recharge_loss", c.RechargeLoss},
		{"discharge_loss", c.DischargeLoss},
		{"parasitic_loss", c.ParasiticLoss},
	}
	for _, l := range losses {
		if l.v < 0 || l.v >= 1 {
			return fmt.Errorf("constraint %s %s=%v: %w", c.Name, l.field, l.v, ErrInvalidLoss)
		}
	}
	return nil
}
