package optimize

import (
	"errors"
	"fmt"
	"runtime"
)

// DefaultPenalty is the fitness assigned to candidates that leave load
// unmet. It sits above any realistic system LCOE.
const DefaultPenalty = 200

// ErrPopulation indicates a population too small for tournament selection.
var ErrPopulation = errors.New("population must contain at least two chromosomes")

// Config holds the genetic algorithm parameters.
type Config struct {
	PopulationSize int `json:"population"`
	Generations    int `json:"generations"`
	// StopThreshold ends the run once the generation best has been the same
	// for that many consecutive generations. Zero disables early stop.
	StopThreshold int     `json:"stop"`
	Workers       int     `json:"workers"`
	Seed          int64   `json:"seed"`
	Penalty       float64 `json:"penalty"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.PopulationSize == 0 {
		c.PopulationSize = 50
	}
	if c.Generations == 0 {
		c.Generations = 20
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Penalty == 0 {
		c.Penalty = DefaultPenalty
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.PopulationSize < 2 {
		return fmt.Errorf("population %d: %w", c.PopulationSize, ErrPopulation)
	}
	if c.Generations < 0 {
		return fmt.Errorf("generations must be >= 0, got %d", c.Generations)
	}
	if c.StopThreshold < 0 {
		return fmt.Errorf("stop threshold must be >= 0, got %d", c.StopThreshold)
	}
	if c.Penalty <= 0 {
		return fmt.Errorf("penalty must be > 0, got %v", c.Penalty)
	}
	return nil
}
