package input

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/powermatch/core/model"
)

// Cell is a raw table value. Numbers and strings are both accepted and
// parsed later with the model's fallback rules, so "1,000" and an empty cell
// behave the way they do in a spreadsheet.
type Cell string

// UnmarshalYAML keeps the scalar text. Sequences are joined with spaces so
// optimisation values may be written as a list.
func (c *Cell) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			*c = ""
			return nil
		}
		*c = Cell(n.Value)
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: nested values are not supported", item.Line)
			}
			parts = append(parts, item.Value)
		}
		*c = Cell(strings.Join(parts, " "))
	default:
		return fmt.Errorf("line %d: expected a scalar", n.Line)
	}
	return nil
}

type ConstraintDef struct {
	Name          string `yaml:"name"`
	Category      Cell   `yaml:"category"`
	CapacityMin   Cell   `yaml:"capacity_min"`
	CapacityMax   Cell   `yaml:"capacity_max"`
	RampUpMax     Cell   `yaml:"rampup_max"`
	RampDownMax   Cell   `yaml:"rampdown_max"`
	RechargeMax   Cell   `yaml:"recharge_max"`
	RechargeLoss  Cell   `yaml:"recharge_loss"`
	DischargeMax  Cell   `yaml:"discharge_max"`
	DischargeLoss Cell   `yaml:"discharge_loss"`
	ParasiticLoss Cell   `yaml:"parasitic_loss"`
}

func (d ConstraintDef) ToModel() model.Constraint {
	return model.NewConstraint(model.RawConstraint{
		Name:          d.Name,
		Category:      string(d.Category),
		CapacityMin:   string(d.CapacityMin),
		CapacityMax:   string(d.CapacityMax),
		RampUpMax:     string(d.RampUpMax),
		RampDownMax:   string(d.RampDownMax),
		RechargeMax:   string(d.RechargeMax),
		RechargeLoss:  string(d.RechargeLoss),
		DischargeMax:  string(d.DischargeMax),
		DischargeLoss: string(d.DischargeLoss),
		ParasiticLoss: string(d.ParasiticLoss),
	})
}

type FacilityDef struct {
	Name       string `yaml:"name"`
	Order      Cell   `yaml:"order"`
	Constraint string `yaml:"constraint"`
	Capacity   Cell   `yaml:"capacity"`
	LCOE       Cell   `yaml:"lcoe"`
	LCOECF     Cell   `yaml:"lcoe_cf"`
	Emissions  Cell   `yaml:"emissions"`
	Initial    Cell   `yaml:"initial"`
}

func (d FacilityDef) ToModel() model.Facility {
	return model.NewFacility(model.RawFacility{
		Name:       d.Name,
		Order:      string(d.Order),
		Constraint: d.Constraint,
		Capacity:   string(d.Capacity),
		LCOE:       string(d.LCOE),
		LCOECF:     string(d.LCOECF),
		Emissions:  string(d.Emissions),
		Initial:    string(d.Initial),
	})
}

type OptimisationDef struct {
	Name     string `yaml:"name"`
	Approach string `yaml:"approach"`
	Values   Cell   `yaml:"values"`
}

func (d OptimisationDef) ToModel() model.OptimisationSpec {
	return model.NewOptimisationSpec(d.Name, d.Approach, string(d.Values))
}

// TablesFile is the on-disk layout of the scenario tables.
type TablesFile struct {
	Constraints  []ConstraintDef   `yaml:"constraints"`
	Facilities   []FacilityDef     `yaml:"facilities"`
	Optimisation []OptimisationDef `yaml:"optimisation"`
	// Order overrides the order derived from the facility order column.
	Order []string `yaml:"order,omitempty"`
}

// ToModel converts the file into model tables. A later row with the same
// name replaces an earlier one.
func (f TablesFile) ToModel() (model.Tables, error) {
	t := model.Tables{
		Constraints:  make(map[string]model.Constraint, len(f.Constraints)),
		Facilities:   make(map[string]model.Facility, len(f.Facilities)),
		Optimisation: make(map[string]model.OptimisationSpec, len(f.Optimisation)),
		Order:        model.DispatchOrder(f.Order),
	}
	for i, d := range f.Constraints {
		if d.Name == "" {
			return model.Tables{}, fmt.Errorf("constraint %d has no name", i+1)
		}
		t.Constraints[d.Name] = d.ToModel()
	}
	for i, d := range f.Facilities {
		if d.Name == "" {
			return model.Tables{}, fmt.Errorf("facility %d has no name", i+1)
		}
		t.Facilities[d.Name] = d.ToModel()
	}
	for i, d := range f.Optimisation {
		if d.Name == "" {
			return model.Tables{}, fmt.Errorf("optimisation row %d has no name", i+1)
		}
		t.Optimisation[d.Name] = d.ToModel()
	}
	return t, nil
}

// LoadTables reads the YAML tables file at path.
func LoadTables(path string) (model.Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Tables{}, err
	}
	return ParseTables(data)
}

// ParseTables decodes YAML tables.
func ParseTables(data []byte) (model.Tables, error) {
	var f TablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return model.Tables{}, fmt.Errorf("decode tables: %w", err)
	}
	return f.ToModel()
}
