package dispatch

import (
	"fmt"

	"github.com/kilianp07/powermatch/core/model"
)

// StorageParams are the per-pass limits of a storage unit, all in MWh
// except the loss and parasitic fractions.
type StorageParams struct {
	Capacity      float64
	Initial       float64
	MinLevel      float64
	MaxLevel      float64
	RechargeCap   float64
	RechargeLoss  float64
	DischargeCap  float64 // recorded only; discharge is bounded by MinLevel
	DischargeLoss float64
	Parasitic     float64 // hourly fraction, parasitic_loss / 24
}

// NewStorageParams derives storage limits for a unit of the given capacity.
// Zero constraint fractions mean "use the default": MaxLevel and
// RechargeCap fall back to capacity, the rest to zero.
func NewStorageParams(capacity, initial float64, c model.Constraint) (StorageParams, error) {
	if err := c.Validate(); err != nil {
		return StorageParams{}, err
	}
	p := StorageParams{
		Capacity: capacity,
		Initial:  initial,
		MaxLevel: capacity,
	}
	if c.CapacityMin > 0 {
		p.MinLevel = capacity * c.CapacityMin
	}
	if c.CapacityMax > 0 {
		p.MaxLevel = capacity * c.CapacityMax
	}
	p.RechargeCap = capacity
	if c.RechargeMax > 0 {
		p.RechargeCap = capacity * c.RechargeMax
	}
	if c.RechargeLoss > 0 {
		p.RechargeLoss = c.RechargeLoss
	}
	if c.DischargeMax > 0 {
		p.DischargeCap = capacity * c.DischargeMax
	}
	if c.DischargeLoss > 0 {
		p.DischargeLoss = c.DischargeLoss
	}
	if c.ParasiticLoss > 0 {
		p.Parasitic = c.ParasiticLoss / 24
	}
	return p, nil
}

func (p StorageParams) validate() error {
	if p.RechargeLoss < 0 || p.RechargeLoss >= 1 {
		return fmt.Errorf("recharge loss %v: %w", p.RechargeLoss, model.ErrInvalidLoss)
	}
	if p.DischargeLoss < 0 || p.DischargeLoss >= 1 {
		return fmt.Errorf("discharge loss %v: %w", p.DischargeLoss, model.ErrInvalidLoss)
	}
	return nil
}

// storageState is the mutable state of one storage unit during a pass.
type storageState struct {
	StorageParams
	carry float64
}

func newStorageState(p StorageParams) *storageState {
	return &storageState{StorageParams: p, carry: p.Initial}
}

// step advances the unit by one hour against residual r and returns the
// signed energy used (negative when charging) and the updated residual.
func (s *storageState) step(r float64) (use, residual float64) {
	if s.carry > 0 {
		s.carry *= 1 - s.Parasitic
	}
	if r < 0 {
		use = -(s.Capacity - s.carry) / (1 - s.RechargeLoss)
		if use < 0 {
			if r > use {
				use = r
			}
			if limit := -s.RechargeCap / (1 - s.RechargeLoss); use < limit {
				use = limit
			}
		} else {
			use = 0
		}
		s.carry -= use * (1 - s.RechargeLoss)
		return use, r - use
	}
	use = r / (1 - s.DischargeLoss)
	if avail := s.carry - s.MinLevel; use > avail {
		use = avail
	}
	if use <= 0 {
		return 0, r
	}
	loss := use * s.DischargeLoss
	s.carry -= use
	if s.carry < 0 {
		s.carry = 0
	}
	return use, r - (use - loss)
}
