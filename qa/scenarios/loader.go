package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/powermatch/core/model"
	"github.com/kilianp07/powermatch/core/optimize"
	"github.com/kilianp07/powermatch/core/powermatch"
	"github.com/kilianp07/powermatch/infra/input"
)

// ProfileDef is a synthetic hourly series: Value during hours of the day in
// [From, To), zero otherwise. From == To means every hour.
type ProfileDef struct {
	Value float64 `yaml:"value"`
	From  int     `yaml:"from"`
	To    int     `yaml:"to"`
}

func (p ProfileDef) series(hours int) []float64 {
	s := make([]float64, hours)
	for h := range s {
		hod := h % 24
		if p.From == p.To || (hod >= p.From && hod < p.To) {
			s[h] = p.Value
		}
	}
	return s
}

type RenewableDef struct {
	Tech     string     `yaml:"tech"`
	Capacity float64    `yaml:"capacity"`
	Profile  ProfileDef `yaml:"profile"`
}

type ParamsDef struct {
	CarbonPrice    float64            `yaml:"carbon_price"`
	LoadMultiplier float64            `yaml:"load_multiplier"`
	Adjustments    map[string]float64 `yaml:"adjustments,omitempty"`
}

func (p ParamsDef) ToModel() powermatch.Params {
	return powermatch.Params{CarbonPrice: p.CarbonPrice, LoadMultiplier: p.LoadMultiplier, Adjustments: p.Adjustments}
}

type OptimiseDef struct {
	Population  int   `yaml:"population"`
	Generations int   `yaml:"generations"`
	Stop        int   `yaml:"stop"`
	Seed        int64 `yaml:"seed"`
}

func (o OptimiseDef) ToModel() optimize.Config {
	return optimize.Config{PopulationSize: o.Population, Generations: o.Generations, StopThreshold: o.Stop, Seed: o.Seed}
}

type Expected struct {
	LoadMet    *float64 `yaml:"load_met,omitempty"`
	LCOE       *float64 `yaml:"lcoe,omitempty"`
	MaxFitness *float64 `yaml:"max_fitness,omitempty"`
	// Generation maps resource names to expected annual MWh.
	Generation map[string]float64 `yaml:"generation,omitempty"`
	Tolerance  float64            `yaml:"tolerance"`
}

type Scenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Hours       int              `yaml:"hours,omitempty"`
	Tables      input.TablesFile `yaml:"tables"`
	Load        ProfileDef       `yaml:"load"`
	Renewables  []RenewableDef   `yaml:"renewables,omitempty"`
	Params      ParamsDef        `yaml:"params"`
	Optimise    *OptimiseDef     `yaml:"optimise,omitempty"`
	Expected    Expected         `yaml:"expected"`
}

// Inputs builds the scenario tables and synthetic hourly data.
func (sc *Scenario) Inputs() (powermatch.Inputs, error) {
	tables, err := sc.Tables.ToModel()
	if err != nil {
		return powermatch.Inputs{}, err
	}
	hours := sc.Hours
	if hours == 0 {
		hours = model.HoursPerYear
	}
	hourly := &model.HourlyData{Load: sc.Load.series(hours)}
	for _, r := range sc.Renewables {
		tech, err := model.ParseTechnology(r.Tech)
		if err != nil {
			return powermatch.Inputs{}, fmt.Errorf("renewable %s: %w", r.Tech, err)
		}
		hourly.Columns = append(hourly.Columns, model.Column{Tech: tech, Capacity: r.Capacity, Values: r.Profile.series(hours)})
	}
	return powermatch.Inputs{Tables: tables, Hourly: hourly}, nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario has no name", path)
	}
	return &sc, nil
}
