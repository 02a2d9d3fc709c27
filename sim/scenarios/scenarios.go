// Package scenarios provides built-in floor plans for evacuation runs.
package scenarios

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/evac-sim/evac-sim/sim"
)

// Builder creates a fresh, unfrozen scenario. rng is only consulted by randomized scenarios.
type Builder func(rng *rand.Rand) (*sim.Scenario, error)

const (
	SupermarketName = "supermarket"
	RandomName      = "random"
	CorridorName    = "corridor"
)

var builders = map[string]Builder{
	SupermarketName: func(*rand.Rand) (*sim.Scenario, error) { return Supermarket() },
	RandomName:      Random,
	CorridorName:    func(*rand.Rand) (*sim.Scenario, error) { return Corridor(20, 60) },
}

// Names returns the registered scenario names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName builds the named scenario.
func ByName(name string, rng *rand.Rand) (*sim.Scenario, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q; valid: %v", name, Names())
	}
	return build(rng)
}

// dijkstraMoore is the floor field used by the hand-authored floor plans.
var dijkstraMoore = sim.FloorFieldConfig{Kind: sim.DijkstraField, Neighbourhood: sim.Moore}

// rect is shorthand for the fixed layouts below, whose extents are never negative.
func rect(bottom, left, height, width int) sim.Rectangle {
	return sim.Rectangle{Bottom: bottom, Left: left, Height: height, Width: width}
}

// Corridor is a rows x columns hall whose whole right-hand column is an exit.
func Corridor(rows, columns int) (*sim.Scenario, error) {
	s, err := sim.NewScenario(rows, columns, 0.4, sim.FloorFieldConfig{Kind: sim.ManhattanField})
	if err != nil {
		return nil, fmt.Errorf("corridor: %w", err)
	}
	if err := s.AddExit(rect(0, columns-1, rows, 1)); err != nil {
		return nil, fmt.Errorf("corridor: %w", err)
	}
	return s, nil
}
