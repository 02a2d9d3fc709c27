package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/evac-sim/evac-sim/sim/trace"
)

// PedestrianParams groups the per-agent behavioural parameters.
type PedestrianParams struct {
	FieldAttractionBias float64 // weight of the floor field in exp(bias * attraction)
	CrowdRepulsion      float64 // divisor applied to the attraction of dead-end cells (> 0)
}

// DefaultPedestrianParams returns the parameters used when none are given.
func DefaultPedestrianParams() PedestrianParams {
	return PedestrianParams{FieldAttractionBias: 1.0, CrowdRepulsion: 1.10}
}

// Validate checks that the bias is finite and the repulsion is a positive finite number.
func (p PedestrianParams) Validate() error {
	if math.IsNaN(p.FieldAttractionBias) || math.IsInf(p.FieldAttractionBias, 0) {
		return fmt.Errorf("%w: field attraction bias must be finite, got %v", ErrInvalidConfig, p.FieldAttractionBias)
	}
	if math.IsNaN(p.CrowdRepulsion) || math.IsInf(p.CrowdRepulsion, 0) || p.CrowdRepulsion <= 0 {
		return fmt.Errorf("%w: crowd repulsion must be positive and finite, got %v", ErrInvalidConfig, p.CrowdRepulsion)
	}
	return nil
}

// Config groups the automaton parameters. Start from DefaultConfig and override fields.
type Config struct {
	Neighbourhood        NeighbourhoodKind // movement adjacency ("" = von-neumann)
	SecondsPerGeneration float64           // wall-clock seconds represented by one generation
	SecondsTimeLimit     float64           // simulated time budget
	MaxGenerations       int               // 0 = derived from SecondsTimeLimit / SecondsPerGeneration
	Pace                 time.Duration     // sleep between generations in Run; 0 for headless runs
	Trace                trace.Level       // "" or "none" disables tracing
}

// DefaultConfig returns a Config with the reference parameters: von Neumann movement,
// 0.4 s per generation and a 100 s time limit.
func DefaultConfig() Config {
	return Config{
		Neighbourhood:        VonNeumann,
		SecondsPerGeneration: 0.4,
		SecondsTimeLimit:     100,
		Trace:                trace.LevelNone,
	}
}

// Validate checks all fields.
func (c Config) Validate() error {
	if !validNeighbourhoods[c.Neighbourhood] {
		return fmt.Errorf("%w: unknown neighbourhood %q; valid: von-neumann, moore", ErrInvalidConfig, c.Neighbourhood)
	}
	if err := validateFinitePositive("seconds per generation", c.SecondsPerGeneration); err != nil {
		return err
	}
	if c.MaxGenerations < 0 {
		return fmt.Errorf("%w: max generations must be non-negative, got %d", ErrInvalidConfig, c.MaxGenerations)
	}
	if c.MaxGenerations == 0 {
		if err := validateFinitePositive("time limit", c.SecondsTimeLimit); err != nil {
			return err
		}
	}
	if c.Pace < 0 {
		return fmt.Errorf("%w: pace must be non-negative, got %v", ErrInvalidConfig, c.Pace)
	}
	if !trace.IsValidLevel(string(c.Trace)) {
		return fmt.Errorf("%w: unknown trace level %q; valid: none, generations", ErrInvalidConfig, c.Trace)
	}
	return nil
}

// GenerationLimit returns MaxGenerations, or the number of whole generations that fit in the
// time limit when MaxGenerations is zero.
func (c Config) GenerationLimit() int {
	if c.MaxGenerations > 0 {
		return c.MaxGenerations
	}
	return int(math.Floor(c.SecondsTimeLimit / c.SecondsPerGeneration))
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%w: %s must be a finite number, got %f", ErrInvalidConfig, name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %f", ErrInvalidConfig, name, val)
	}
	return nil
}
