package input

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/powermatch/core/model"
)

const tablesYAML = `
constraints:
  - name: Battery
    category: Storage
    capacity_min: 0.1
    recharge_loss: "0.05"
    discharge_loss: 0.05
    parasitic_loss: bad
  - name: Peaker
    category: Generator
facilities:
  - name: Gas
    order: 2
    capacity: "1,000"
    lcoe: 80
    lcoe_cf: 0.9
    emissions: 0.5
  - name: Battery
    order: 1.0
    constraint: Battery
    capacity: 400
    initial: 100
  - name: Spare
    order: -1
    capacity: 50
optimisation:
  - name: Gas
    approach: Range
    values: "0 1000 100"
  - name: Battery
    approach: Discrete
    values: [100, 200, x]
`

func TestParseTables(t *testing.T) {
	tables, err := ParseTables([]byte(tablesYAML))
	require.NoError(t, err)
	require.NoError(t, tables.Validate())

	batt := tables.Constraints["Battery"]
	assert.True(t, batt.IsStorage())
	assert.Equal(t, 0.1, batt.CapacityMin)
	assert.Equal(t, 0.05, batt.RechargeLoss)
	assert.Equal(t, 0.0, batt.ParasiticLoss)
	assert.Equal(t, 1.0, batt.CapacityMax)
	assert.False(t, tables.Constraints["Peaker"].IsStorage())

	gas := tables.Facilities["Gas"]
	assert.Equal(t, 1000.0, gas.Capacity)
	assert.Equal(t, 2, gas.Order)
	assert.Equal(t, 1, tables.Facilities["Battery"].Order)
	assert.Equal(t, 100.0, tables.Facilities["Battery"].Initial)

	assert.Equal(t, model.DispatchOrder{"Battery", "Gas"}, tables.DispatchOrder())
	assert.Equal(t, 10, tables.Spec("Gas").Steps())
	assert.Equal(t, []float64{100, 200}, tables.Spec("Battery").Blocks)
	assert.Equal(t, model.ApproachNone, tables.Spec("Spare").Approach)
}

func TestParseTables_Errors(t *testing.T) {
	if _, err := ParseTables([]byte("facilities:\n  - order: 1\n")); err == nil {
		t.Fatalf("expected missing name error")
	}
	if _, err := ParseTables([]byte("facilities: [")); err == nil {
		t.Fatalf("expected yaml error")
	}
	if _, err := ParseTables([]byte("facilities:\n  - name: A\n    capacity: {a: 1}\n")); err == nil {
		t.Fatalf("expected scalar error")
	}
}

func TestParseTables_ExplicitOrder(t *testing.T) {
	tables, err := ParseTables([]byte(tablesYAML + "order: [Gas]\n"))
	require.NoError(t, err)
	assert.Equal(t, model.DispatchOrder{"Gas"}, tables.DispatchOrder())
}

func hourlyCSV(hours int, header string, capRow string, above string) string {
	var b strings.Builder
	b.WriteString("Powermatch hourly data,,,\n")
	if above != "" {
		b.WriteString(above + "\n")
		b.WriteString(capRow + "\n")
	}
	b.WriteString(header + "\n")
	if above == "" {
		b.WriteString(capRow + "\n")
	}
	for h := 0; h < hours; h++ {
		fmt.Fprintf(&b, "%d,%d:00,50,%d,\n", h+1, h%24, h%3)
	}
	return b.String()
}

func TestReadHourly_HeaderLabels(t *testing.T) {
	csv := hourlyCSV(model.HoursPerYear, "Hour,Period,Load,Onshore Wind,-Fixed PV,Notes", "Capacity (MW),,,200,0,", "")
	data, err := ReadHourly(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, model.HoursPerYear, data.Hours())
	assert.Equal(t, 50.0, data.Load[0])
	require.Len(t, data.Columns, 2)
	wind := data.Columns[0]
	assert.Equal(t, model.TechOnshoreWind, wind.Tech)
	assert.Equal(t, 200.0, wind.Capacity)
	assert.Equal(t, 2.0, wind.Values[2])
	pv := data.Columns[1]
	assert.Equal(t, model.TechFixedPV, pv.Tech)
	assert.Equal(t, 0.0, pv.Capacity)
}

func TestReadHourly_LabelsAboveHeader(t *testing.T) {
	csv := hourlyCSV(model.HoursPerLeapYear, "Hour,Period,,,", "Capacity (MW),,,150,", "Technology,,Load,Offshore Wind,")
	data, err := ReadHourly(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, model.HoursPerLeapYear, data.Hours())
	require.Len(t, data.Columns, 1)
	assert.Equal(t, 150.0, data.Columns[0].Capacity)
}

func TestReadHourly_Errors(t *testing.T) {
	cases := []struct {
		name string
		csv  string
		want error
	}{
		{"no header", "a,b,c\n1,2,3\n", ErrNoHeader},
		{"no capacity", hourlyCSV(model.HoursPerYear, "Hour,Period,Load,Onshore Wind", "x,,,1", ""), ErrNoCapacity},
		{"short year", hourlyCSV(24, "Hour,Period,Load,Onshore Wind", "Capacity (MW),,,1", ""), model.ErrSeriesLength},
		{"duplicate load", hourlyCSV(model.HoursPerYear, "Hour,Period,Load,Load", "Capacity (MW),,,1", ""), ErrDuplicateColumn},
		{"duplicate renewable", hourlyCSV(model.HoursPerYear, "Hour,Period,Load,Fixed PV,Fixed PV", "Capacity (MW),,,1,1", ""), ErrDuplicateColumn},
		{"disabled duplicate", hourlyCSV(model.HoursPerYear, "Hour,Period,Load,Fixed PV,-Fixed PV", "Capacity (MW),,,1,0", ""), ErrDuplicateColumn},
		{"no load", hourlyCSV(model.HoursPerYear, "Hour,Period,Onshore Wind,Fixed PV", "Capacity (MW),,1,1", ""), model.ErrNoLoad},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ReadHourly(strings.NewReader(c.csv))
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v got %v", c.want, err)
			}
		})
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	tp := filepath.Join(dir, "tables.yaml")
	hp := filepath.Join(dir, "hourly.csv")
	require.NoError(t, os.WriteFile(tp, []byte(tablesYAML), 0o600))
	require.NoError(t, os.WriteFile(hp, []byte(hourlyCSV(model.HoursPerYear, "Hour,Period,Load,Onshore Wind", "Capacity (MW),,,10", "")), 0o600))
	_, err := LoadTables(tp)
	require.NoError(t, err)
	_, err = LoadHourly(hp)
	require.NoError(t, err)
	_, err = LoadTables(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
