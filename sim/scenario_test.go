package sim

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScenario_RejectsInvalidDimensions(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		cellSide   float64
		field      FloorFieldConfig
		wantErr    error
	}{
		{"zero rows", 0, 5, 0.4, FloorFieldConfig{}, ErrInvalidDimension},
		{"negative columns", 5, -1, 0.4, FloorFieldConfig{}, ErrInvalidDimension},
		{"zero cell side", 5, 5, 0, FloorFieldConfig{}, ErrInvalidDimension},
		{"unknown field", 5, 5, 0.4, FloorFieldConfig{Kind: "euclid"}, ErrInvalidConfig},
		{"unknown field neighbourhood", 5, 5, 0.4, FloorFieldConfig{Kind: DijkstraField, Neighbourhood: "hex"}, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScenario(tt.rows, tt.cols, tt.cellSide, tt.field)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestScenario_AddRegions(t *testing.T) {
	// GIVEN an empty 5x6 scenario
	s, err := NewScenario(5, 6, 0.5, FloorFieldConfig{})
	require.NoError(t, err)
	assert.Equal(t, 0.5, s.CellSide())

	// WHEN an exit and a block are added
	require.NoError(t, s.AddExit(Rectangle{Bottom: 0, Left: 0, Height: 1, Width: 2}))
	require.NoError(t, s.AddBlock(Rectangle{Bottom: 2, Left: 2, Height: 2, Width: 2}))

	// THEN cells report their status and regions are kept in insertion order
	assert.Equal(t, Exit, s.Status(0, 1))
	assert.True(t, s.IsExit(0, 0))
	assert.True(t, s.IsBlocked(3, 3))
	assert.False(t, s.IsBlocked(4, 3))
	assert.Equal(t, Clear, s.Status(4, 5))
	assert.Len(t, s.Exits(), 1)
	assert.Len(t, s.Blocks(), 1)
}

func TestScenario_AddRegionErrors(t *testing.T) {
	newScenario := func(t *testing.T) *Scenario {
		s, err := NewScenario(5, 5, 0.4, FloorFieldConfig{})
		require.NoError(t, err)
		require.NoError(t, s.AddExit(Rectangle{Bottom: 0, Left: 0, Height: 1, Width: 2}))
		require.NoError(t, s.AddBlock(Rectangle{Bottom: 3, Left: 3, Height: 1, Width: 1}))
		return s
	}
	tests := []struct {
		name    string
		add     func(s *Scenario) error
		wantErr error
	}{
		{"exit out of bounds", func(s *Scenario) error {
			return s.AddExit(Rectangle{Bottom: 4, Left: 4, Height: 1, Width: 2})
		}, ErrOutOfBounds},
		{"block negative origin", func(s *Scenario) error {
			return s.AddBlock(Rectangle{Bottom: -1, Left: 0, Height: 1, Width: 1})
		}, ErrOutOfBounds},
		{"negative extent", func(s *Scenario) error {
			return s.AddBlock(Rectangle{Bottom: 1, Left: 1, Height: -1, Width: 1})
		}, ErrInvalidDimension},
		{"empty region", func(s *Scenario) error {
			return s.AddExit(Rectangle{Bottom: 1, Left: 1, Height: 0, Width: 1})
		}, ErrInvalidDimension},
		{"block over exit", func(s *Scenario) error {
			return s.AddBlock(Rectangle{Bottom: 0, Left: 1, Height: 2, Width: 1})
		}, ErrOverlappingRegion},
		{"exit over block", func(s *Scenario) error {
			return s.AddExit(Rectangle{Bottom: 3, Left: 2, Height: 1, Width: 3})
		}, ErrOverlappingRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScenario(t)
			assert.ErrorIs(t, tt.add(s), tt.wantErr)
			assert.Len(t, s.Exits(), 1, "rejected regions are not recorded")
			assert.Len(t, s.Blocks(), 1, "rejected regions are not recorded")
		})
	}
}

func TestScenario_OverlappingBlocksAndExitsOfSameKind(t *testing.T) {
	s, err := NewScenario(4, 4, 0.4, FloorFieldConfig{})
	require.NoError(t, err)
	require.NoError(t, s.AddBlock(Rectangle{Bottom: 1, Left: 1, Height: 2, Width: 2}))
	assert.NoError(t, s.AddBlock(Rectangle{Bottom: 2, Left: 2, Height: 2, Width: 2}))
	require.NoError(t, s.AddExit(Rectangle{Bottom: 0, Left: 0, Height: 1, Width: 2}))
	assert.NoError(t, s.AddExit(Rectangle{Bottom: 0, Left: 1, Height: 1, Width: 2}))
}

func TestScenario_FrozenAfterFloorFieldInitialization(t *testing.T) {
	// GIVEN a scenario whose floor field was initialized
	s, err := NewScenario(3, 3, 0.4, FloorFieldConfig{})
	require.NoError(t, err)
	require.NoError(t, s.AddExit(Rectangle{Bottom: 0, Left: 0, Height: 1, Width: 1}))
	s.InitializeFloorField()
	assert.True(t, s.Frozen())

	// THEN further regions are rejected
	assert.ErrorIs(t, s.AddExit(Rectangle{Bottom: 2, Left: 2, Height: 1, Width: 1}), ErrScenarioFrozen)
	assert.ErrorIs(t, s.AddBlock(Rectangle{Bottom: 1, Left: 1, Height: 1, Width: 1}), ErrScenarioFrozen)
}

func TestScenario_WithFloorField(t *testing.T) {
	// GIVEN a frozen scenario using the Manhattan field
	s, _ := newGridScenario(t, FloorFieldConfig{},
		"...",
		".#.",
		"E..",
	)
	s.InitializeFloorField()

	// WHEN it is cloned with the Dijkstra field
	clone, err := s.WithFloorField(FloorFieldConfig{Kind: DijkstraField})
	require.NoError(t, err)

	// THEN the clone is unfrozen, shares the regions and leaves the original untouched
	assert.False(t, clone.Frozen())
	assert.Equal(t, DijkstraField, clone.FloorField().Kind())
	assert.Equal(t, ManhattanField, s.FloorField().Kind())
	assert.Equal(t, s.Exits(), clone.Exits())
	assert.Equal(t, s.Blocks(), clone.Blocks())
	assert.True(t, clone.IsBlocked(1, 1))
	assert.NoError(t, clone.AddBlock(Rectangle{Bottom: 2, Left: 2, Height: 1, Width: 1}))
	assert.False(t, s.IsBlocked(2, 2))
}

func TestScenario_LookupsOutOfRangePanic(t *testing.T) {
	s, err := NewScenario(3, 3, 0.4, FloorFieldConfig{})
	require.NoError(t, err)
	assert.Panics(t, func() { s.Status(3, 0) })
	assert.Panics(t, func() { s.IsBlocked(0, -1) })
	assert.False(t, s.InBounds(-1, 0))
	assert.True(t, s.InBounds(2, 2))
}

func TestCellStatus_TextRoundTrip(t *testing.T) {
	in := []CellStatus{Clear, Blocked, Exit}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `["clear","blocked","exit"]`, string(b))

	var out []CellStatus
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	var bad CellStatus
	assert.Error(t, bad.UnmarshalText([]byte("lava")))
}
