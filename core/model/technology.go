package model

import (
	"fmt"
	"strings"
)

// Technology identifies a column of the hourly generation matrix.
type Technology int

const (
	TechLoad Technology = iota
	TechOnshoreWind
	TechOffshoreWind
	TechRooftopPV
	TechFixedPV
	TechSingleAxisPV
	TechDualAxisPV
	TechBiomass
	TechGeothermal
	TechOther1
	TechCST
)

var techLabels = [...]string{
	TechLoad:         "Load",
	TechOnshoreWind:  "Onshore Wind",
	TechOffshoreWind: "Offshore Wind",
	TechRooftopPV:    "Rooftop PV",
	TechFixedPV:      "Fixed PV",
	TechSingleAxisPV: "Single Axis PV",
	TechDualAxisPV:   "Dual Axis PV",
	TechBiomass:      "Biomass",
	TechGeothermal:   "Geothermal",
	TechOther1:       "Other1",
	TechCST:          "CST",
}

// ParseTechnology validates an external column label. Hyphens are stripped
// first, matching the way the hourly data files mark disabled columns.
func ParseTechnology(label string) (Technology, error) {
	l := strings.TrimSpace(strings.ReplaceAll(label, "-", ""))
	for i, name := range techLabels {
		if name == l {
			return Technology(i), nil
		}
	}
	return 0, fmt.Errorf("unknown technology %q", label)
}

// String returns the external label.
func (t Technology) String() string {
	if int(t) >= 0 && int(t) < len(techLabels) {
		return techLabels[t]
	}
	return "unknown"
}

// Renewable reports whether the technology is must-take renewable
// generation. Every column except Load is.
func (t Technology) Renewable() bool { return t != TechLoad }
