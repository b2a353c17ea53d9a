package model

import (
	"errors"
	"fmt"
)

const (
	// HoursPerYear is the annual hour count used to price and rate resources.
	HoursPerYear = 8760
	// HoursPerLeapYear is the length accepted for leap-year data.
	HoursPerLeapYear = 8784
)

var (
	// ErrNoLoad indicates the hourly matrix has no Load column.
	ErrNoLoad = errors.New("hourly data has no load column")
	// ErrSeriesLength indicates an hourly series that is not one year long.
	ErrSeriesLength = errors.New("hourly series must have 8760 or 8784 values")
)

// Column is one renewable generation series of the hourly matrix.
type Column struct {
	Tech     Technology
	Capacity float64 // nameplate MW the series was generated for
	Values   []float64
}

// Name returns the resource name of the column.
func (c Column) Name() string { return c.Tech.String() }

// HourlyData is the hourly generation matrix plus the load series.
type HourlyData struct {
	Load    []float64
	Columns []Column
}

// Hours returns the series length.
func (h *HourlyData) Hours() int { return len(h.Load) }

// Column returns the column for tech, if present.
func (h *HourlyData) Column(tech Technology) (Column, bool) {
	for _, c := range h.Columns {
		if c.Tech == tech {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks that a load series is present and all series share a
// one-year length.
func (h *HourlyData) Validate() error {
	if h == nil || len(h.Load) == 0 {
		return ErrNoLoad
	}
	n := len(h.Load)
	if n != HoursPerYear && n != HoursPerLeapYear {
		return fmt.Errorf("load has %d values: %w", n, ErrSeriesLength)
	}
	for _, c := range h.Columns {
		if c.Tech == TechLoad {
			return fmt.Errorf("load listed as generation column")
		}
		if len(c.Values) != n {
			return fmt.Errorf("%s has %d values, load has %d: %w", c.Name(), len(c.Values), n, ErrSeriesLength)
		}
	}
	return nil
}
