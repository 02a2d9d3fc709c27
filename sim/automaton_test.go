package sim

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evac-sim/evac-sim/sim/trace"
)

// greedy makes lateral moves vanishingly unlikely so single-agent paths are deterministic.
var greedy = PedestrianParams{FieldAttractionBias: 50, CrowdRepulsion: 1.1}

func TestNewAutomaton_Errors(t *testing.T) {
	s, _ := newGridScenario(t, FloorFieldConfig{}, "E..")
	rng := NewPartitionedRNG(NewSimulationKey(1))
	badCfg := DefaultConfig()
	badCfg.SecondsPerGeneration = 0

	tests := []struct {
		name     string
		scenario *Scenario
		cfg      Config
		rng      *PartitionedRNG
	}{
		{"nil scenario", nil, DefaultConfig(), rng},
		{"nil rng", s, DefaultConfig(), nil},
		{"invalid config", s, badCfg, rng},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAutomaton(tt.scenario, tt.cfg, tt.rng)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNewAutomaton_InitializesAndFreezesScenario(t *testing.T) {
	s, _ := newGridScenario(t, FloorFieldConfig{}, "E..")
	require.False(t, s.Frozen())

	_, err := NewAutomaton(s, DefaultConfig(), NewPartitionedRNG(NewSimulationKey(1)))

	require.NoError(t, err)
	assert.True(t, s.Frozen())
	assert.True(t, s.FloorField().Initialized())
	assert.ErrorIs(t, s.AddBlock(Rectangle{Bottom: 0, Left: 2, Height: 1, Width: 1}), ErrScenarioFrozen)
}

func TestAutomaton_SingleAgentReachesExit(t *testing.T) {
	// GIVEN a 5x5 grid with an exit at the bottom centre and one agent at the top centre
	a := newGridAutomaton(t, DefaultConfig(), 42, greedy,
		"..o..",
		".....",
		".....",
		".....",
		"..E..",
	)

	// WHEN the run completes
	generations := a.Run(100)

	// THEN the agent walked the Manhattan distance and left on the following generation
	assert.True(t, a.IsFinished())
	assert.Equal(t, 5, generations)
	completed := a.Completed()
	require.Len(t, completed, 1)
	assert.Equal(t, 4, completed[0].Steps)
	assert.Equal(t, 4, completed[0].ExitGeneration)
	assert.Equal(t, Location{Row: 0, Column: 2}, completed[0].Location)

	st, err := a.ComputeStatistics()
	require.NoError(t, err)
	assert.Equal(t, 1, st.NumberOfEvacuees)
	assert.Equal(t, 0, st.NumberOfNonEvacuees)
}

func TestAutomaton_AgentOnExitLeavesAtFirstGeneration(t *testing.T) {
	a := newGridAutomaton(t, DefaultConfig(), 1, DefaultPedestrianParams(), "E.")
	require.True(t, a.AddPedestrian(Location{Row: 0, Column: 0}, DefaultPedestrianParams()))

	a.AdvanceOneGeneration()

	completed := a.Completed()
	require.Len(t, completed, 1)
	assert.Equal(t, 0, completed[0].ExitGeneration)
	assert.Equal(t, 0, completed[0].Steps)
	assert.False(t, a.IsOccupied(Location{Row: 0, Column: 0}))
	assert.Equal(t, 1, a.Generation())
}

func TestAutomaton_AddPedestrian(t *testing.T) {
	a := newGridAutomaton(t, DefaultConfig(), 1, DefaultPedestrianParams(),
		"o#",
		"E.",
	)

	tests := []struct {
		name string
		loc  Location
		want bool
	}{
		{"occupied cell", Location{Row: 1, Column: 0}, false},
		{"blocked cell", Location{Row: 1, Column: 1}, false},
		{"free cell", Location{Row: 0, Column: 1}, true},
		{"same cell twice", Location{Row: 0, Column: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.AddPedestrian(tt.loc, DefaultPedestrianParams()))
		})
	}
	assert.Len(t, a.Live(), 2)

	assert.Panics(t, func() { a.AddPedestrian(Location{Row: 5, Column: 0}, DefaultPedestrianParams()) })
	assert.Panics(t, func() {
		a.AddPedestrian(Location{Row: 0, Column: 0}, PedestrianParams{FieldAttractionBias: 1, CrowdRepulsion: 0})
	})
}

func TestAutomaton_AddPedestrianOnExitWarns(t *testing.T) {
	a := newGridAutomaton(t, DefaultConfig(), 1, DefaultPedestrianParams(), "E.")

	output := captureLogOutput(func() {
		require.True(t, a.AddPedestrian(Location{Row: 0, Column: 0}, DefaultPedestrianParams()))
	})

	assert.Contains(t, output, "placed on exit cell")
}

func TestAutomaton_AddPedestriansUniformly(t *testing.T) {
	// GIVEN a 4x4 grid with 2 blocked cells and 1 agent, leaving 13 free cells
	newAutomaton := func(t *testing.T) *Automaton {
		return newGridAutomaton(t, DefaultConfig(), 9, DefaultPedestrianParams(),
			"o...",
			".##.",
			"....",
			"...E",
		)
	}

	t.Run("fills every free cell", func(t *testing.T) {
		a := newAutomaton(t)
		require.NoError(t, a.AddPedestriansUniformly(13, DefaultPedestrianParams()))
		assert.Len(t, a.Live(), 14)
		assert.Equal(t, 0, a.freeCells())
		assert.False(t, a.IsOccupied(Location{Row: 2, Column: 1}))
	})

	t.Run("more than free cells", func(t *testing.T) {
		a := newAutomaton(t)
		err := a.AddPedestriansUniformly(14, DefaultPedestrianParams())
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Len(t, a.Live(), 1, "nothing placed on failure")
	})

	t.Run("negative count", func(t *testing.T) {
		assert.ErrorIs(t, newAutomaton(t).AddPedestriansUniformly(-1, DefaultPedestrianParams()), ErrInvalidConfig)
	})

	t.Run("invalid params", func(t *testing.T) {
		err := newAutomaton(t).AddPedestriansUniformly(1, PedestrianParams{CrowdRepulsion: -1})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestAutomaton_AddPedestriansUniformlyIsSeeded(t *testing.T) {
	locations := func(seed int64) []Location {
		a := newGridAutomaton(t, DefaultConfig(), seed, DefaultPedestrianParams(),
			"......",
			"..##..",
			"......",
			"E.....",
		)
		require.NoError(t, a.AddPedestriansUniformly(8, DefaultPedestrianParams()))
		var out []Location
		for _, p := range a.Live() {
			out = append(out, p.Location)
		}
		return out
	}

	assert.Equal(t, locations(5), locations(5))
	assert.NotEqual(t, locations(5), locations(6))
}

// crowdedAutomaton builds a 10x12 room with a wall and a two-cell exit, filled with 40 agents.
func crowdedAutomaton(t *testing.T, seed int64) *Automaton {
	t.Helper()
	a := newGridAutomaton(t, DefaultConfig(), seed, DefaultPedestrianParams(),
		"............",
		"............",
		"####........",
		"............",
		"............",
		"..##....##..",
		"............",
		"............",
		"............",
		".....EE.....",
	)
	require.NoError(t, a.AddPedestriansUniformly(40, DefaultPedestrianParams()))
	return a
}

func TestAutomaton_OccupancyAndConservationInvariants(t *testing.T) {
	a := crowdedAutomaton(t, 17)
	total := len(a.Live())

	for gen := 0; gen < 500 && !a.IsFinished(); gen++ {
		a.AdvanceOneGeneration()

		live := a.Live()
		// conservation
		require.Equal(t, total, len(live)+len(a.Completed()), "generation %d", gen)

		// occupancy: distinct cells, never blocked, mirrored by the occupancy grid
		seen := make(map[Location]bool, len(live))
		for _, p := range live {
			require.False(t, seen[p.Location], "generation %d: two agents on %v", gen, p.Location)
			seen[p.Location] = true
			require.False(t, a.Scenario().IsBlocked(p.Location.Row, p.Location.Column), "generation %d: agent on block", gen)
			require.True(t, a.IsOccupied(p.Location))
		}
		occupied := 0
		for _, o := range a.Snapshot().Occupied {
			if o {
				occupied++
			}
		}
		require.Equal(t, len(live), occupied, "generation %d", gen)
	}
	assert.True(t, a.IsFinished())
}

func TestAutomaton_SnapshotsDuringRunAreWholeGenerations(t *testing.T) {
	// GIVEN a crowded room and a reader polling snapshots from another goroutine
	a := crowdedAutomaton(t, 23)
	total := len(a.Live())
	done := make(chan struct{})
	var torn []string
	var reads int
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			s := a.Snapshot()
			reads++
			occupied := 0
			for _, o := range s.Occupied {
				if o {
					occupied++
				}
			}
			if len(s.Agents)+s.Evacuated != total || occupied != len(s.Agents) {
				torn = append(torn, fmt.Sprintf("generation %d: %d agents, %d evacuated, %d occupied",
					s.Generation, len(s.Agents), s.Evacuated, occupied))
			}
			_ = a.Live()
			select {
			case <-done:
				return
			default:
			}
		}
	}()

	// WHEN the run advances concurrently
	a.Run(500)
	close(done)
	wg.Wait()

	// THEN every snapshot saw a complete generation
	assert.Empty(t, torn)
	assert.Positive(t, reads)
}

func TestAutomaton_StepsNeverExceedGenerations(t *testing.T) {
	a := crowdedAutomaton(t, 3)
	a.Run(500)
	for _, p := range a.Completed() {
		assert.LessOrEqual(t, p.Steps, p.ExitGeneration)
		assert.True(t, a.Scenario().IsExit(p.Location.Row, p.Location.Column))
	}
}

func TestAutomaton_SameSeedSameEvacuation(t *testing.T) {
	// GIVEN two automata built from the same seed
	a, b := crowdedAutomaton(t, 99), crowdedAutomaton(t, 99)

	// WHEN both are advanced in lockstep
	for !a.IsFinished() && a.Generation() < 500 {
		a.AdvanceOneGeneration()
		b.AdvanceOneGeneration()
		// THEN every intermediate grid matches
		require.Equal(t, a.Snapshot().String(), b.Snapshot().String(), "generation %d", a.Generation())
	}
	require.Equal(t, a.IsFinished(), b.IsFinished())

	ca, cb := a.Completed(), b.Completed()
	require.Len(t, cb, len(ca))
	for i := range ca {
		assert.Equal(t, ca[i].Steps, cb[i].Steps)
		assert.Equal(t, ca[i].ExitGeneration, cb[i].ExitGeneration)
		assert.Equal(t, ca[i].Location, cb[i].Location)
	}
}

func TestAutomaton_ClaimedCellIsNotTakenTwice(t *testing.T) {
	// GIVEN two agents whose only viable move is the exit cell between them
	cfg := DefaultConfig()
	cfg.Trace = trace.LevelGenerations
	a := newGridAutomaton(t, cfg, 4, DefaultPedestrianParams(), "oEo")

	// WHEN one generation is advanced
	a.AdvanceOneGeneration()

	// THEN exactly one of them entered the exit and the other stayed
	assert.True(t, a.IsOccupied(Location{Row: 0, Column: 1}))
	left, right := a.IsOccupied(Location{Row: 0, Column: 0}), a.IsOccupied(Location{Row: 0, Column: 2})
	assert.True(t, left != right, "exactly one side cell still occupied")

	records := a.Trace().Generations
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Moved)
	assert.Equal(t, 1, records[0].Stayed)
	assert.Equal(t, 2, records[0].Live)
}

func TestAutomaton_TrappedAgentIsStranded(t *testing.T) {
	// GIVEN an agent walled in away from the exit
	a := newGridAutomaton(t, DefaultConfig(), 1, DefaultPedestrianParams(),
		"o#.",
		"##E",
	)

	// WHEN the run hits its cap
	var generations int
	output := captureLogOutput(func() { generations = a.Run(10) })

	// THEN the cap is a normal termination reported as a stranded agent
	assert.Equal(t, 10, generations)
	assert.False(t, a.IsFinished())
	assert.Contains(t, output, "Generation limit reached with 1 pedestrians inside")
	st, err := a.ComputeStatistics()
	assert.ErrorIs(t, err, ErrNoEvacuees)
	assert.Equal(t, 1, st.NumberOfNonEvacuees)
	assert.Equal(t, 0, st.NumberOfEvacuees)
	assert.Equal(t, 0, a.Live()[0].Steps)
}

func TestAutomaton_RunZeroGenerations(t *testing.T) {
	a := newGridAutomaton(t, DefaultConfig(), 1, DefaultPedestrianParams(), "o.E")
	assert.Equal(t, 0, a.Run(0))
	assert.Len(t, a.Live(), 1)
}

func TestAutomaton_RunNotifiesObserver(t *testing.T) {
	a := newGridAutomaton(t, DefaultConfig(), 42, greedy,
		"o",
		".",
		"E",
	)
	var snaps []*Snapshot
	a.SetObserver(func(s *Snapshot) { snaps = append(snaps, s) })

	generations := a.Run(50)

	require.Len(t, snaps, generations)
	for i, s := range snaps {
		assert.Equal(t, i+1, s.Generation)
	}
	last := snaps[len(snaps)-1]
	assert.Equal(t, 1, last.Evacuated)
	assert.Empty(t, last.Agents)
}

func TestAutomaton_TraceRecordsEveryGeneration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trace = trace.LevelGenerations
	a := newGridAutomaton(t, cfg, 42, greedy,
		"o.",
		"..",
		".E",
	)

	generations := a.Run(50)

	tr := a.Trace()
	require.NotNil(t, tr)
	assert.Equal(t, int64(42), tr.Seed)
	require.Len(t, tr.Generations, generations)
	for i, g := range tr.Generations {
		assert.Equal(t, i, g.Generation)
	}
	require.Len(t, tr.Exits, 1)
	assert.Equal(t, 0, tr.Exits[0].Row)
	assert.Equal(t, 1, tr.Exits[0].Column)
	assert.Equal(t, 3, tr.Exits[0].Steps)
	assert.Equal(t, generations-1, tr.Exits[0].Generation)
}

func TestAutomaton_TraceDisabledByDefault(t *testing.T) {
	a := newGridAutomaton(t, DefaultConfig(), 1, DefaultPedestrianParams(), "oE")
	a.Run(5)
	assert.Nil(t, a.Trace())
}
