package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/evac-sim/evac-sim/sim/trace"
)

// Observer is invoked by Run after every generation with a fresh snapshot.
// It runs on the simulation goroutine between generations and must not block for long.
type Observer func(*Snapshot)

// Automaton is the stepping engine: it owns the occupancy grids and the pedestrians, and
// advances the whole population one generation at a time.
//
// Occupancy is double-buffered: occupancy[current] is the state at the start of the
// generation and occupancy[1-current] accumulates the claims made during it. The buffers
// are swapped by flipping current. All mutable state is guarded by mu, held for the whole
// clear -> shuffle -> resolve -> swap sequence, so readers never observe a torn generation.
type Automaton struct {
	scenario      *Scenario
	config        Config
	neighbourhood Neighbourhood
	rng           *PartitionedRNG

	mu         sync.RWMutex
	occupancy  [2][]bool
	current    int
	live       []*Pedestrian
	completed  []*Pedestrian
	generation int

	trace    *trace.SimulationTrace // nil when tracing is disabled
	observer Observer
}

// NewAutomaton creates an automaton over scenario. The scenario's floor field is initialized
// here if it was not already, which freezes the scenario.
func NewAutomaton(scenario *Scenario, cfg Config, rng *PartitionedRNG) (*Automaton, error) {
	if scenario == nil {
		return nil, fmt.Errorf("%w: scenario must not be nil", ErrInvalidConfig)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: rng must not be nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Neighbourhood == "" {
		cfg.Neighbourhood = VonNeumann
	}
	if !scenario.FloorField().Initialized() {
		scenario.InitializeFloorField()
	}
	cells := scenario.Rows() * scenario.Columns()
	a := &Automaton{
		scenario:      scenario,
		config:        cfg,
		neighbourhood: NewNeighbourhood(cfg.Neighbourhood, scenario.Rows(), scenario.Columns()),
		rng:           rng,
		occupancy:     [2][]bool{make([]bool, cells), make([]bool, cells)},
	}
	if cfg.Trace.Enabled() {
		a.trace = trace.NewSimulationTrace(cfg.Trace, int64(rng.Key()))
	}
	return a, nil
}

// Scenario returns the scenario the automaton runs on.
func (a *Automaton) Scenario() *Scenario { return a.scenario }

// Config returns the validated configuration.
func (a *Automaton) Config() Config { return a.config }

// Trace returns the recorded trace, or nil when tracing is disabled.
// Read it only after Run has returned.
func (a *Automaton) Trace() *trace.SimulationTrace { return a.trace }

// SetObserver installs fn to be called by Run after each generation. nil removes it.
func (a *Automaton) SetObserver(fn Observer) { a.observer = fn }

// AddPedestrian places a pedestrian at loc. It returns false when the cell is blocked or
// already occupied. Panics if loc is outside the grid or params are invalid.
func (a *Automaton) AddPedestrian(loc Location, params PedestrianParams) bool {
	if err := params.Validate(); err != nil {
		panic(fmt.Sprintf("AddPedestrian: %v", err))
	}
	placed, onExit := a.addPedestrian(loc, params)
	if onExit {
		logrus.Warnf("Pedestrian placed on exit cell %v will leave at the next generation", loc)
	}
	return placed
}

// addPedestrian places a pedestrian and reports whether it landed on an exit cell.
func (a *Automaton) addPedestrian(loc Location, params PedestrianParams) (placed, onExit bool) {
	idx := a.scenario.mustIndex("AddPedestrian", loc.Row, loc.Column)

	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.occupancy[a.current]
	if now[idx] || a.scenario.cells[idx] == Blocked {
		return false, false
	}
	now[idx] = true
	a.live = append(a.live, NewPedestrian(loc, params))
	return true, a.scenario.cells[idx] == Exit
}

// AddPedestriansUniformly places count pedestrians on cells drawn uniformly at random among
// free cells, using the placement RNG subsystem. It fails without placing anyone when fewer
// than count cells are free.
func (a *Automaton) AddPedestriansUniformly(count int, params PedestrianParams) error {
	if count < 0 {
		return fmt.Errorf("%w: pedestrian count must be non-negative, got %d", ErrInvalidConfig, count)
	}
	if err := params.Validate(); err != nil {
		return err
	}
	if free := a.freeCells(); count > free {
		return fmt.Errorf("%w: cannot place %d pedestrians on %d free cells", ErrInvalidConfig, count, free)
	}
	rng := a.rng.ForSubsystem(SubsystemPlacement)
	onExits := 0
	for placed := 0; placed < count; {
		loc := Location{Row: rng.Intn(a.scenario.Rows()), Column: rng.Intn(a.scenario.Columns())}
		ok, onExit := a.addPedestrian(loc, params)
		if !ok {
			continue
		}
		placed++
		if onExit {
			onExits++
		}
	}
	if onExits > 0 {
		logrus.Warnf("%d of %d pedestrians were placed on exit cells", onExits, count)
	}
	return nil
}

func (a *Automaton) freeCells() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	free := 0
	for i, occupied := range a.occupancy[a.current] {
		if !occupied && a.scenario.cells[i] != Blocked {
			free++
		}
	}
	return free
}

// IsOccupied reports whether a pedestrian stands on loc at the current generation boundary.
func (a *Automaton) IsOccupied(loc Location) bool {
	idx := a.scenario.mustIndex("IsOccupied", loc.Row, loc.Column)
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.occupancy[a.current][idx]
}

// Generation returns the number of generations advanced so far.
func (a *Automaton) Generation() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.generation
}

// IsFinished reports whether every pedestrian has evacuated.
func (a *Automaton) IsFinished() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.live) == 0
}

// Live returns copies of the pedestrians still inside the scenario.
func (a *Automaton) Live() []Pedestrian {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return copyPedestrians(a.live)
}

// Completed returns copies of the evacuated pedestrians in exit order.
func (a *Automaton) Completed() []Pedestrian {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return copyPedestrians(a.completed)
}

func copyPedestrians(ps []*Pedestrian) []Pedestrian {
	out := make([]Pedestrian, len(ps))
	for i, p := range ps {
		out[i] = *p
	}
	return out
}

// outcome of one pedestrian within a generation.
type outcome uint8

const (
	outcomeStay outcome = iota
	outcomeMove
	outcomeExit
)

type resolution struct {
	outcome outcome
	target  Location
}

// AdvanceOneGeneration moves the whole population by one synchronized generation.
func (a *Automaton) AdvanceOneGeneration() {
	a.mu.Lock()
	defer a.mu.Unlock()

	now, next := a.occupancy[a.current], a.occupancy[1-a.current]
	clear(next)

	// Random processing order removes the first-mover advantage in claim conflicts.
	shuffle := a.rng.ForSubsystem(SubsystemShuffle)
	shuffle.Shuffle(len(a.live), func(i, j int) { a.live[i], a.live[j] = a.live[j], a.live[i] })

	// Pass 1: decide and claim in shuffled order. Only the next grid is written.
	decide := a.rng.ForSubsystem(SubsystemDecision)
	env := &surroundings{automaton: a, now: now, next: next}
	record := trace.GenerationRecord{Generation: a.generation}
	resolved := make([]resolution, len(a.live))
	for i, p := range a.live {
		here := a.scenario.index(p.Location.Row, p.Location.Column)
		if a.scenario.cells[here] == Exit {
			resolved[i] = resolution{outcome: outcomeExit}
			continue
		}
		target, ok := p.Decide(env, decide)
		if !ok {
			next[here] = true
			record.Stayed++
			continue
		}
		there := a.scenario.index(target.Row, target.Column)
		if next[there] {
			next[here] = true
			record.Stayed++
			record.Conflicts++
			continue
		}
		next[there] = true
		resolved[i] = resolution{outcome: outcomeMove, target: target}
		record.Moved++
	}

	// Pass 2: apply relocations and removals.
	remaining := a.live[:0]
	for i, p := range a.live {
		switch resolved[i].outcome {
		case outcomeExit:
			p.ExitGeneration = a.generation
			a.completed = append(a.completed, p)
			record.Evacuated++
			if a.trace != nil {
				a.trace.RecordExit(trace.ExitRecord{
					AgentID:    p.ID,
					Generation: a.generation,
					Steps:      p.Steps,
					Row:        p.Location.Row,
					Column:     p.Location.Column,
				})
			}
		case outcomeMove:
			p.moveTo(resolved[i].target)
			remaining = append(remaining, p)
		default:
			remaining = append(remaining, p)
		}
	}
	clear(a.live[len(remaining):])
	a.live = remaining

	a.current = 1 - a.current
	record.Live = len(a.live)
	if a.trace != nil {
		a.trace.RecordGeneration(record)
	}
	logrus.Debugf("[gen %07d] live=%d evacuated=%d moved=%d stayed=%d",
		a.generation, record.Live, record.Evacuated, record.Moved, record.Stayed)
	a.generation++
}

// Run advances generations until every pedestrian has evacuated or maxGenerations
// generations have elapsed, both normal terminations. It returns the generation count.
// Between generations it notifies the observer and sleeps Config.Pace.
func (a *Automaton) Run(maxGenerations int) int {
	logrus.Infof("Starting evacuation: %d pedestrians, %dx%d grid, max %d generations",
		len(a.Live()), a.scenario.Rows(), a.scenario.Columns(), maxGenerations)

	for a.Generation() < maxGenerations && !a.IsFinished() {
		a.AdvanceOneGeneration()
		if a.observer != nil {
			a.observer(a.Snapshot())
		}
		if a.config.Pace > 0 {
			time.Sleep(a.config.Pace)
		}
	}

	generation := a.Generation()
	if live := len(a.Live()); live > 0 {
		logrus.Warnf("[gen %07d] Generation limit reached with %d pedestrians inside", generation, live)
	} else {
		logrus.Infof("[gen %07d] Evacuation complete", generation)
	}
	return generation
}

// surroundings exposes the automaton's grids to the decision model during pass 1.
type surroundings struct {
	automaton *Automaton
	now       []bool
	next      []bool
}

func (s *surroundings) index(loc Location) int {
	return s.automaton.scenario.index(loc.Row, loc.Column)
}

func (s *surroundings) Neighbours(loc Location) []Location {
	return s.automaton.neighbourhood.Neighbours(loc.Row, loc.Column)
}

func (s *surroundings) IsBlocked(loc Location) bool {
	return s.automaton.scenario.cells[s.index(loc)] == Blocked
}

func (s *surroundings) Occupied(loc Location) bool { return s.now[s.index(loc)] }

func (s *surroundings) Claimed(loc Location) bool { return s.next[s.index(loc)] }

func (s *surroundings) Field(loc Location) float64 {
	return s.automaton.scenario.floorField.Field(loc.Row, loc.Column)
}
