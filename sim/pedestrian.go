package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
)

// nextPedestrianID is the process-wide identifier counter.
var nextPedestrianID atomic.Int64

// Pedestrian is an agent walking towards an exit. It is mutated only by the automaton.
type Pedestrian struct {
	ID             int64
	Location       Location
	Steps          int // completed moves
	ExitGeneration int // generation at which it left; -1 while inside
	Params         PedestrianParams
}

// NewPedestrian creates a pedestrian with the next process-wide identifier.
func NewPedestrian(loc Location, params PedestrianParams) *Pedestrian {
	return &Pedestrian{
		ID:             nextPedestrianID.Add(1) - 1,
		Location:       loc,
		ExitGeneration: -1,
		Params:         params,
	}
}

// Evacuated reports whether the pedestrian has left through an exit.
func (p *Pedestrian) Evacuated() bool { return p.ExitGeneration >= 0 }

func (p *Pedestrian) moveTo(loc Location) {
	p.Location = loc
	p.Steps++
}

func (p *Pedestrian) String() string {
	return fmt.Sprintf("Pedestrian(%d, %v)", p.ID, p.Location)
}

// Surroundings is what a pedestrian can observe while deciding a move.
// The automaton implements it over its current and next occupancy grids.
type Surroundings interface {
	Neighbours(loc Location) []Location
	IsBlocked(loc Location) bool
	// Occupied reports occupancy at the start of the generation.
	Occupied(loc Location) bool
	// Claimed reports whether an earlier agent already claimed the cell this generation.
	Claimed(loc Location) bool
	Field(loc Location) float64
}

// Movement is a tentative move and its unnormalized desirability.
type Movement struct {
	Location     Location
	Desirability float64
}

// Movements scores every viable neighbouring cell. Candidates keep the neighbourhood's order.
// A candidate whose own neighbours are all occupied or blocked has its attraction divided by
// the crowd repulsion factor.
//
// Desirabilities are exp(bias*attraction) scaled by a common factor exp(-max) so that large
// fields cannot overflow; sampling proportions are unchanged.
func (p *Pedestrian) Movements(env Surroundings) []Movement {
	neighbours := env.Neighbours(p.Location)
	movements := make([]Movement, 0, len(neighbours))
	exponents := make([]float64, 0, len(neighbours))
	maxExponent := math.Inf(-1)
	for _, nb := range neighbours {
		if env.IsBlocked(nb) || env.Occupied(nb) || env.Claimed(nb) {
			continue
		}
		attraction := env.Field(nb)
		if isDeadEnd(env, nb) {
			attraction /= p.Params.CrowdRepulsion
		}
		e := p.Params.FieldAttractionBias * attraction
		movements = append(movements, Movement{Location: nb})
		exponents = append(exponents, e)
		maxExponent = math.Max(maxExponent, e)
	}
	for i, e := range exponents {
		movements[i].Desirability = math.Exp(e - maxExponent)
	}
	return movements
}

func isDeadEnd(env Surroundings, loc Location) bool {
	for _, around := range env.Neighbours(loc) {
		if !env.IsBlocked(around) && !env.Occupied(around) {
			return false
		}
	}
	return true
}

// Decide picks the next cell by weighted sampling over Movements. ok is false when no
// neighbouring cell is viable this generation.
func (p *Pedestrian) Decide(env Surroundings, rng *rand.Rand) (loc Location, ok bool) {
	movements := p.Movements(env)
	if len(movements) == 0 {
		return Location{}, false
	}
	weights := make([]float64, len(movements))
	for i, m := range movements {
		weights[i] = m.Desirability
	}
	return movements[SampleDiscrete(rng, weights)].Location, true
}
