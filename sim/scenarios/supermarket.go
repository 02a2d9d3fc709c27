package scenarios

import (
	"fmt"

	"github.com/evac-sim/evac-sim/sim"
)

// supermarketBlocks are the shelves and counters of the supermarket, grouped by aisle.
var supermarketBlocks = []sim.Rectangle{
	// top corner
	rect(39, 0, 6, 2),
	// seafood
	rect(39, 6, 4, 3),
	// meat
	rect(39, 12, 4, 2), rect(39, 16, 4, 2), rect(39, 22, 4, 2), rect(39, 26, 4, 2),
	// dairy
	rect(39, 36, 4, 2), rect(39, 40, 4, 2),
	// wine
	rect(41, 48, 1, 5), rect(38, 48, 1, 5), rect(35, 48, 1, 5),
	// bakery
	rect(32, 48, 1, 2), rect(32, 51, 1, 2),
	rect(28, 48, 1, 2), rect(28, 51, 1, 2),
	rect(24, 48, 1, 2), rect(24, 51, 1, 2),
	// deli
	rect(20, 48, 1, 5), rect(15, 48, 1, 5), rect(10, 48, 1, 5),
	// grocery
	rect(24, 12, 13, 2), rect(24, 17, 13, 2), rect(24, 22, 13, 2), rect(24, 27, 13, 2),
	rect(24, 32, 13, 2), rect(24, 37, 13, 2), rect(24, 42, 13, 2),
	// frozen
	rect(9, 12, 12, 2), rect(9, 17, 12, 2), rect(9, 22, 12, 2), rect(9, 27, 12, 2),
	rect(9, 32, 12, 2), rect(9, 37, 12, 2), rect(9, 42, 12, 2),
	// bulk
	rect(34, 8, 3, 2), rect(29, 8, 3, 2),
	rect(35, 3, 1, 3), rect(31, 3, 1, 3),
	// produce
	rect(25, 3, 1, 5), rect(21, 3, 1, 5),
	rect(17, 3, 1, 2), rect(17, 6, 1, 2),
	rect(13, 3, 1, 2), rect(13, 6, 1, 2),
	rect(9, 3, 1, 2), rect(9, 6, 1, 2),
	// florist
	rect(4, 3, 1, 4),
	// checkouts
	rect(3, 24, 3, 1), rect(3, 27, 3, 1), rect(3, 30, 3, 1), rect(3, 33, 3, 1),
	rect(3, 36, 3, 1), rect(3, 39, 3, 1), rect(3, 42, 3, 1),
}

// supermarketExit is the front door on the bottom wall.
var supermarketExit = rect(0, 21, 1, 8)

// Supermarket is a 45x55 floor plan with 0.5 m cells and a single exit on the bottom wall.
func Supermarket() (*sim.Scenario, error) {
	s, err := sim.NewScenario(45, 55, 0.5, dijkstraMoore)
	if err != nil {
		return nil, fmt.Errorf("supermarket: %w", err)
	}
	for _, block := range supermarketBlocks {
		if err := s.AddBlock(block); err != nil {
			return nil, fmt.Errorf("supermarket: %w", err)
		}
	}
	if err := s.AddExit(supermarketExit); err != nil {
		return nil, fmt.Errorf("supermarket: %w", err)
	}
	return s, nil
}
