package sim

import (
	"fmt"
	"sort"
	"strings"
)

// AgentView is the read-only view of a pedestrian inside a Snapshot.
type AgentView struct {
	ID       int64    `json:"id"`
	Location Location `json:"location"`
	Steps    int      `json:"steps"`
}

// Snapshot is an immutable copy of the automaton state between two generations.
// It is what renderers and observers consume.
type Snapshot struct {
	Generation int          `json:"generation"`
	Rows       int          `json:"rows"`
	Columns    int          `json:"columns"`
	Status     []CellStatus `json:"status"`   // row-major static status
	Occupied   []bool       `json:"occupied"` // row-major occupancy
	Agents     []AgentView  `json:"agents"`   // ordered by ID
	Evacuated  int          `json:"evacuated"`
}

// Snapshot copies the current state. It takes the read lock only for the copy and never
// spans a generation.
func (a *Automaton) Snapshot() *Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snap := &Snapshot{
		Generation: a.generation,
		Rows:       a.scenario.Rows(),
		Columns:    a.scenario.Columns(),
		Status:     append([]CellStatus(nil), a.scenario.cells...),
		Occupied:   append([]bool(nil), a.occupancy[a.current]...),
		Agents:     make([]AgentView, len(a.live)),
		Evacuated:  len(a.completed),
	}
	for i, p := range a.live {
		snap.Agents[i] = AgentView{ID: p.ID, Location: p.Location, Steps: p.Steps}
	}
	sort.Slice(snap.Agents, func(i, j int) bool { return snap.Agents[i].ID < snap.Agents[j].ID })
	return snap
}

// CellAt returns the static status and occupancy of a cell. Panics if the cell is outside the grid.
func (s *Snapshot) CellAt(row, column int) (CellStatus, bool) {
	if row < 0 || row >= s.Rows || column < 0 || column >= s.Columns {
		panic(fmt.Sprintf("CellAt: cell (%d,%d) outside %dx%d grid", row, column, s.Rows, s.Columns))
	}
	idx := row*s.Columns + column
	return s.Status[idx], s.Occupied[idx]
}

// String renders the snapshot as ASCII with the top row first:
// '#' blocked, 'E' exit, 'o' pedestrian, '.' clear.
func (s *Snapshot) String() string {
	var sb strings.Builder
	sb.Grow((s.Columns + 1) * s.Rows)
	for row := s.Rows - 1; row >= 0; row-- {
		for col := 0; col < s.Columns; col++ {
			status, occupied := s.CellAt(row, col)
			switch {
			case occupied:
				sb.WriteByte('o')
			case status == Blocked:
				sb.WriteByte('#')
			case status == Exit:
				sb.WriteByte('E')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
