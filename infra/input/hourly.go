package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kilianp07/powermatch/core/model"
)

const capacityLabel = "Capacity (MW)"

var (
	// ErrNoHeader indicates the file has no "Hour,Period" header row.
	ErrNoHeader = errors.New("not a hourly data file: no Hour,Period header")
	// ErrNoCapacity indicates the file has no "Capacity (MW)" row.
	ErrNoCapacity = errors.New("hourly data has no capacity row")
	// ErrDuplicateColumn indicates a technology labels more than one column.
	ErrDuplicateColumn = errors.New("duplicate technology column")
)

// LoadHourly reads an hourly CSV file. See ReadHourly for the layout.
func LoadHourly(path string) (*model.HourlyData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadHourly(f)
}

// ReadHourly parses the hourly matrix. Technology labels sit from the third
// column on, either in the "Hour,Period" header row itself or in a row above
// it. A row starting with "Capacity (MW)" between the labels and the data
// gives each column's nameplate. Every row after the header is one hour.
// Hyphenated labels are disabled columns and read as the plain technology;
// the first unknown label ends the column list.
func ReadHourly(r io.Reader) (*model.HourlyData, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read hourly csv: %w", err)
	}

	top := -1
	for i, rec := range rows {
		if len(rec) >= 2 && cell(rec, 0) == "Hour" && cell(rec, 1) == "Period" {
			top = i
			break
		}
	}
	if top < 0 {
		return nil, ErrNoHeader
	}
	typ := -1
	for i := top; i >= 0; i-- {
		if _, err := model.ParseTechnology(cell(rows[i], 2)); err == nil {
			typ = i
			break
		}
	}
	if typ < 0 {
		return nil, fmt.Errorf("no technology columns found")
	}
	capRow, start := -1, top+1
	for i := typ + 1; i < top; i++ {
		if cell(rows[i], 0) == capacityLabel {
			capRow = i
			break
		}
	}
	if capRow < 0 && start < len(rows) && cell(rows[start], 0) == capacityLabel {
		capRow, start = start, start+1
	}
	if capRow < 0 {
		return nil, ErrNoCapacity
	}

	var techs []model.Technology
	for col := 2; col < len(rows[typ]); col++ {
		t, err := model.ParseTechnology(cell(rows[typ], col))
		if err != nil {
			break
		}
		techs = append(techs, t)
	}

	hours := rows[start:]
	for len(hours) > 0 && isBlank(hours[len(hours)-1]) {
		hours = hours[:len(hours)-1]
	}
	data := &model.HourlyData{}
	seen := make(map[model.Technology]bool, len(techs))
	for i, t := range techs {
		if seen[t] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, t)
		}
		seen[t] = true
		col := i + 2
		values := make([]float64, len(hours))
		for h, rec := range hours {
			values[h] = model.ParseFloat(cell(rec, col), 0)
		}
		if t == model.TechLoad {
			data.Load = values
			continue
		}
		data.Columns = append(data.Columns, model.Column{
			Tech:     t,
			Capacity: model.ParseFloat(cell(rows[capRow], col), 0),
			Values:   values,
		})
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
