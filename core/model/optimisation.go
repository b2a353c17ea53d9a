package model

import (
	"math"
	"strings"
)

// Approach selects how the optimiser searches a resource's capacity.
type Approach int

const (
	ApproachNone Approach = iota
	ApproachDiscrete
	ApproachRange
)

// ParseApproach maps an external label to an Approach. Unknown labels
// disable optimisation for the resource.
func ParseApproach(label string) Approach {
	switch strings.TrimSpace(label) {
	case "Discrete":
		return ApproachDiscrete
	case "Range":
		return ApproachRange
	default:
		return ApproachNone
	}
}

func (a Approach) String() string {
	switch a {
	case ApproachDiscrete:
		return "Discrete"
	case ApproachRange:
		return "Range"
	default:
		return "None"
	}
}

// OptimisationSpec is the capacity search space of one resource.
type OptimisationSpec struct {
	Name     string   `json:"name"`
	Approach Approach `json:"approach"`
	// Blocks are independently selectable capacity increments (Discrete).
	Blocks []float64 `json:"blocks,omitempty"`
	// CapacityMin, CapacityMax and CapacityStep describe a uniform lattice (Range).
	CapacityMin  float64 `json:"capacity_min"`
	CapacityMax  float64 `json:"capacity_max"`
	CapacityStep float64 `json:"capacity_step"`
}

// NewOptimisationSpec parses the space separated values column of an
// optimisation table row. For Discrete the values are block sizes and
// unparsable entries are dropped. For Range they are "min max step";
// missing entries fall back to zero.
func NewOptimisationSpec(name, approach, values string) OptimisationSpec {
	spec := OptimisationSpec{Name: name, Approach: ParseApproach(approach)}
	fields := strings.Fields(values)
	switch spec.Approach {
	case ApproachDiscrete:
		for _, f := range fields {
			v := ParseFloat(f, math.NaN())
			if math.IsNaN(v) {
				continue
			}
			spec.Blocks = append(spec.Blocks, v)
			spec.CapacityMax += v
		}
		spec.CapacityMax = math.Round(spec.CapacityMax*1000) / 1000
	case ApproachRange:
		at := func(i int) string {
			if i < len(fields) {
				return fields[i]
			}
			return ""
		}
		spec.CapacityMin = ParseFloat(at(0), 0)
		spec.CapacityMax = ParseFloat(at(1), 0)
		spec.CapacityStep = ParseFloat(at(2), 0)
	}
	return spec
}

// Steps returns the number of lattice steps of a Range spec. Any remainder
// of (max-min)/step is dropped. Non-range specs and non-positive steps
// return 0.
func (s OptimisationSpec) Steps() int {
	if s.Approach != ApproachRange || s.CapacityStep <= 0 || s.CapacityMax < s.CapacityMin {
		return 0
	}
	return int((s.CapacityMax - s.CapacityMin) / s.CapacityStep)
}
