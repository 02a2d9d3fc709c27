package sim

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/evac-sim/evac-sim/sim/internal/testutil"
)

// newGridScenario builds a scenario from ASCII art (see testutil.ParseGrid) with one 1x1
// region per exit and block cell. Agents drawn in the grid are returned, not placed.
func newGridScenario(t *testing.T, field FloorFieldConfig, lines ...string) (*Scenario, []Location) {
	t.Helper()
	g := testutil.ParseGrid(t, lines...)
	s, err := NewScenario(g.Rows, g.Columns, 0.4, field)
	require.NoError(t, err)
	for _, c := range g.Exits {
		require.NoError(t, s.AddExit(Rectangle{Bottom: c.Row, Left: c.Column, Height: 1, Width: 1}))
	}
	for _, c := range g.Blocks {
		require.NoError(t, s.AddBlock(Rectangle{Bottom: c.Row, Left: c.Column, Height: 1, Width: 1}))
	}
	agents := make([]Location, len(g.Agents))
	for i, c := range g.Agents {
		agents[i] = Location{Row: c.Row, Column: c.Column}
	}
	return s, agents
}

// newGridAutomaton builds the scenario and places its agents with params.
func newGridAutomaton(t *testing.T, cfg Config, seed int64, params PedestrianParams, lines ...string) *Automaton {
	t.Helper()
	s, agents := newGridScenario(t, FloorFieldConfig{}, lines...)
	a, err := NewAutomaton(s, cfg, NewPartitionedRNG(NewSimulationKey(seed)))
	require.NoError(t, err)
	for _, loc := range agents {
		require.True(t, a.AddPedestrian(loc, params), "place %v", loc)
	}
	return a
}

// captureLogOutput runs fn and returns the log output as a string.
func captureLogOutput(fn func()) string {
	var buf bytes.Buffer
	origOutput := logrus.StandardLogger().Out
	origLevel := logrus.GetLevel()
	logrus.SetOutput(&buf)
	logrus.SetLevel(logrus.WarnLevel)
	defer func() {
		if origOutput != nil {
			logrus.SetOutput(origOutput)
		} else {
			logrus.SetOutput(os.Stderr)
		}
		logrus.SetLevel(origLevel)
	}()
	fn()
	return buf.String()
}
