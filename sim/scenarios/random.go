package scenarios

import (
	"fmt"
	"math/rand"

	"github.com/evac-sim/evac-sim/sim"
)

const (
	randomRows     = 45
	randomColumns  = 90
	randomCellSide = 0.4

	minRandomBlocks = 50
	maxRandomBlocks = 120 // exclusive
	// blockMargin is the clear gap kept around every block.
	blockMargin = 2
)

// Random builds a 45x90 map with up to five exits, each present with a fixed probability,
// and 50 to 119 randomly sized blocks kept at least two cells apart from each other and from
// the exits. Placement gives up after three attempts per requested block.
// rng is typically the scenario subsystem of a PartitionedRNG.
func Random(rng *rand.Rand) (*sim.Scenario, error) {
	if rng == nil {
		return nil, fmt.Errorf("random scenario: rng must not be nil")
	}
	rows, columns := randomRows, randomColumns
	s, err := sim.NewScenario(rows, columns, randomCellSide, dijkstraMoore)
	if err != nil {
		return nil, fmt.Errorf("random scenario: %w", err)
	}

	exits := []struct {
		p    float64
		rect sim.Rectangle
	}{
		{0.9, rect(2, columns-1, 5, 1)},
		{0.9, rect(rows-7, columns-1, 5, 1)},
		{0.9, rect(10, 0, 5, 1)},
		{0.9, rect(rows-15, 0, 5, 1)},
		{0.5, rect(rows/2, columns/2, 2, 2)},
	}
	for _, e := range exits {
		if sim.Bernoulli(rng, e.p) {
			if err := s.AddExit(e.rect); err != nil {
				return nil, fmt.Errorf("random scenario: %w", err)
			}
		}
	}

	wanted := intBetween(rng, minRandomBlocks, maxRandomBlocks)
	placed := 0
	for tries := 3 * wanted; placed < wanted && tries > 0; tries-- {
		var width int
		if sim.Bernoulli(rng, 0.5) {
			width = 1 + rng.Intn(2)
		} else {
			width = 1 + rng.Intn(20)
		}
		height := 1 + rng.Intn(max(1, rows/(2*width)))

		row := intBetween(rng, 0, 1+rows-height)
		column := intBetween(rng, blockMargin, 1+columns-width-blockMargin)
		block := rect(row, column, height, width)
		border := rect(row-blockMargin, column-blockMargin, height+2*blockMargin, width+2*blockMargin)
		if border.IntersectsAny(s.Exits()) || border.IntersectsAny(s.Blocks()) {
			continue
		}
		if err := s.AddBlock(block); err != nil {
			return nil, fmt.Errorf("random scenario: %w", err)
		}
		placed++
	}
	return s, nil
}

// intBetween returns a uniform integer in [lo, hi).
func intBetween(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo)
}
