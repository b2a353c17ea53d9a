package dispatch

import (
	"fmt"
	"time"
)

// Unit is one resource offered to the merit order. Storage is nil for
// plain generators.
type Unit struct {
	Name     string
	Capacity float64
	Storage  *StorageParams
}

// UnitResult holds the hourly outcome of one unit.
type UnitResult struct {
	Name     string
	Capacity float64
	Storage  bool
	// Used is the energy supplied each hour. For storage it is signed:
	// negative when charging from surplus.
	Used []float64
	// Carry is the stored energy at the end of each hour (storage only).
	Carry []float64
	// After is the residual after this unit, recorded in detail mode.
	After []float64
}

// Result is the outcome of one pass through the merit order.
type Result struct {
	Units []UnitResult
	// Residual is the residual series after every unit; it aliases the
	// buffer passed to Simulate.
	Residual []float64
}

// UnitProgress is reported once per dispatched unit.
type UnitProgress struct {
	Unit  string
	Index int
	Total int
}

// Options tune a simulation pass.
type Options struct {
	// Detail keeps a copy of the residual after each unit.
	Detail bool
	// Progress, when set, is called after each unit.
	Progress func(UnitProgress)
}

// Simulate walks units in order, hour loop nested inside, and fills the
// residual series. residual is owned by the call and modified in place;
// positive values are shortfall, negative values surplus.
func Simulate(residual []float64, units []Unit, opts Options) (*Result, error) {
	start := time.Now()
	res := &Result{Units: make([]UnitResult, 0, len(units)), Residual: residual}
	for i, u := range units {
		ur := UnitResult{Name: u.Name, Capacity: u.Capacity, Storage: u.Storage != nil}
		if u.Capacity > 0 {
			if u.Storage != nil {
				if err := u.Storage.validate(); err != nil {
					simulationErrors.Inc()
					return nil, fmt.Errorf("unit %s: %w", u.Name, err)
				}
				ur.Used, ur.Carry = dispatchStorage(residual, newStorageState(*u.Storage))
			} else {
				ur.Used = dispatchGenerator(residual, u.Capacity)
			}
		}
		if opts.Detail {
			ur.After = append([]float64(nil), residual...)
		}
		res.Units = append(res.Units, ur)
		unitsDispatched.WithLabelValues(unitKind(u)).Inc()
		if opts.Progress != nil {
			opts.Progress(UnitProgress{Unit: u.Name, Index: i + 1, Total: len(units)})
		}
	}
	observe(res, time.Since(start).Seconds())
	return res, nil
}

// dispatchGenerator greedily covers shortfall up to capacity each hour.
// Surplus hours are left untouched.
func dispatchGenerator(residual []float64, capacity float64) []float64 {
	used := make([]float64, len(residual))
	for h, r := range residual {
		if r < 0 {
			continue
		}
		if r >= capacity {
			used[h] = capacity
			residual[h] = r - capacity
		} else {
			used[h] = r
			residual[h] = 0
		}
	}
	return used
}

func dispatchStorage(residual []float64, s *storageState) (used, carry []float64) {
	used = make([]float64, len(residual))
	carry = make([]float64, len(residual))
	for h, r := range residual {
		used[h], residual[h] = s.step(r)
		carry[h] = s.carry
	}
	return used, carry
}
