package sim

import (
	"fmt"
)

// CellStatus is the static status of a scenario cell.
type CellStatus uint8

const (
	Clear CellStatus = iota
	Blocked
	Exit
)

func (c CellStatus) String() string {
	switch c {
	case Clear:
		return "clear"
	case Blocked:
		return "blocked"
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("CellStatus(%d)", uint8(c))
	}
}

// MarshalText encodes the status by name, so status grids serialize as JSON string arrays.
func (c CellStatus) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (c *CellStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "clear":
		*c = Clear
	case "blocked":
		*c = Blocked
	case "exit":
		*c = Exit
	default:
		return fmt.Errorf("unknown cell status %q", text)
	}
	return nil
}

// Scenario is the static description of the area being evacuated: a rows x columns grid of
// square cells, the exit and block regions placed on it, and the static floor field derived
// from them. Regions are added during construction; once the floor field is initialized the
// scenario is frozen and safe for concurrent reads.
type Scenario struct {
	rows        int
	columns     int
	cellSide    float64 // meters
	boundingBox Rectangle

	cells  []CellStatus // row-major
	exits  []Rectangle
	blocks []Rectangle

	floorField FloorField
	frozen     bool
}

// NewScenario creates an empty scenario. The floor field described by field is built
// immediately but only computed by InitializeFloorField.
func NewScenario(rows, columns int, cellSide float64, field FloorFieldConfig) (*Scenario, error) {
	if rows <= 0 {
		return nil, fmt.Errorf("%w: rows must be positive, got %d", ErrInvalidDimension, rows)
	}
	if columns <= 0 {
		return nil, fmt.Errorf("%w: columns must be positive, got %d", ErrInvalidDimension, columns)
	}
	if !(cellSide > 0) {
		return nil, fmt.Errorf("%w: cell side must be positive, got %v", ErrInvalidDimension, cellSide)
	}
	if err := field.Validate(); err != nil {
		return nil, err
	}
	s := &Scenario{
		rows:        rows,
		columns:     columns,
		cellSide:    cellSide,
		boundingBox: Rectangle{Bottom: 0, Left: 0, Height: rows, Width: columns},
		cells:       make([]CellStatus, rows*columns),
	}
	s.floorField = newFloorField(s, field)
	return s, nil
}

// Rows returns the number of rows of the grid.
func (s *Scenario) Rows() int { return s.rows }

// Columns returns the number of columns of the grid.
func (s *Scenario) Columns() int { return s.columns }

// CellSide returns the side length of a cell in meters.
func (s *Scenario) CellSide() float64 { return s.cellSide }

// Exits returns a copy of the exit regions in insertion order.
func (s *Scenario) Exits() []Rectangle { return append([]Rectangle(nil), s.exits...) }

// Blocks returns a copy of the block regions in insertion order.
func (s *Scenario) Blocks() []Rectangle { return append([]Rectangle(nil), s.blocks...) }

// FloorField returns the static floor field owned by this scenario.
func (s *Scenario) FloorField() FloorField { return s.floorField }

// Frozen reports whether the floor field has been initialized.
func (s *Scenario) Frozen() bool { return s.frozen }

// AddExit registers an exit region.
func (s *Scenario) AddExit(r Rectangle) error {
	if err := s.checkRegion("AddExit", r, Blocked); err != nil {
		return err
	}
	s.exits = append(s.exits, r)
	s.paint(r, Exit)
	return nil
}

// AddBlock registers an obstacle region.
func (s *Scenario) AddBlock(r Rectangle) error {
	if err := s.checkRegion("AddBlock", r, Exit); err != nil {
		return err
	}
	s.blocks = append(s.blocks, r)
	s.paint(r, Blocked)
	return nil
}

// checkRegion validates r for insertion; conflicting is the status r must not overlap.
func (s *Scenario) checkRegion(op string, r Rectangle, conflicting CellStatus) error {
	if s.frozen {
		return fmt.Errorf("%s: %w", op, ErrScenarioFrozen)
	}
	if r.Height < 0 || r.Width < 0 {
		return fmt.Errorf("%s: %w: negative extent in %v", op, ErrInvalidDimension, r)
	}
	if r.Empty() {
		return fmt.Errorf("%s: %w: %v covers no cells", op, ErrInvalidDimension, r)
	}
	if !s.boundingBox.Contains(r) {
		return fmt.Errorf("%s: %w: %v outside %dx%d grid", op, ErrOutOfBounds, r, s.rows, s.columns)
	}
	for _, loc := range r.Cells() {
		if s.cells[s.index(loc.Row, loc.Column)] == conflicting {
			return fmt.Errorf("%s: %w at cell %v", op, ErrOverlappingRegion, loc)
		}
	}
	return nil
}

func (s *Scenario) paint(r Rectangle, status CellStatus) {
	for row := r.Bottom; row <= r.Top(); row++ {
		for col := r.Left; col <= r.Right(); col++ {
			s.cells[s.index(row, col)] = status
		}
	}
}

// WithFloorField returns an unfrozen copy of the scenario's regions that uses a different
// floor field algorithm.
func (s *Scenario) WithFloorField(field FloorFieldConfig) (*Scenario, error) {
	clone, err := NewScenario(s.rows, s.columns, s.cellSide, field)
	if err != nil {
		return nil, err
	}
	copy(clone.cells, s.cells)
	clone.exits = s.Exits()
	clone.blocks = s.Blocks()
	return clone, nil
}

// InitializeFloorField computes the static floor field and freezes the scenario.
// Calling it again recomputes the same field.
func (s *Scenario) InitializeFloorField() {
	s.floorField.Initialize()
	s.frozen = true
}

// InBounds reports whether (row, column) is a cell of the grid.
func (s *Scenario) InBounds(row, column int) bool {
	return row >= 0 && row < s.rows && column >= 0 && column < s.columns
}

// Status returns the static status of a cell.
func (s *Scenario) Status(row, column int) CellStatus {
	return s.cells[s.mustIndex("Status", row, column)]
}

// IsBlocked reports whether a cell lies in a block region.
func (s *Scenario) IsBlocked(row, column int) bool {
	return s.Status(row, column) == Blocked
}

// IsExit reports whether a cell lies in an exit region.
func (s *Scenario) IsExit(row, column int) bool {
	return s.Status(row, column) == Exit
}

func (s *Scenario) index(row, column int) int { return row*s.columns + column }

func (s *Scenario) mustIndex(op string, row, column int) int {
	if !s.InBounds(row, column) {
		panic(fmt.Sprintf("%s: cell (%d,%d) outside %dx%d grid", op, row, column, s.rows, s.columns))
	}
	return s.index(row, column)
}
