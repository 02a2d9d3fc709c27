package sim

import "fmt"

// NeighbourhoodKind selects the adjacency rule used for movement and for floor field topology.
type NeighbourhoodKind string

const (
	// VonNeumann connects a cell to its 4 orthogonal neighbours.
	VonNeumann NeighbourhoodKind = "von-neumann"
	// Moore connects a cell to its 8 orthogonal and diagonal neighbours.
	Moore NeighbourhoodKind = "moore"
)

var validNeighbourhoods = map[NeighbourhoodKind]bool{
	VonNeumann: true,
	Moore:      true,
	"":         true, // empty defaults to von-neumann
}

// IsValidNeighbourhood returns true if the given name is a recognized neighbourhood.
func IsValidNeighbourhood(name string) bool {
	return validNeighbourhoods[NeighbourhoodKind(name)]
}

// Neighbourhood maps a cell to its in-bounds adjacent cells.
// Implementations are pure: no randomness and no state beyond grid extents.
type Neighbourhood interface {
	Neighbours(row, column int) []Location
	Kind() NeighbourhoodKind
}

// offsets in emission order: north, south, east, west, then diagonals.
var (
	vonNeumannOffsets = []Location{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	mooreOffsets      = []Location{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
)

type gridNeighbourhood struct {
	kind    NeighbourhoodKind
	rows    int
	columns int
	offsets []Location
}

// NewNeighbourhood creates the neighbourhood of the given kind for a rows x columns grid.
// The empty kind yields von Neumann.
func NewNeighbourhood(kind NeighbourhoodKind, rows, columns int) Neighbourhood {
	if rows <= 0 || columns <= 0 {
		panic(fmt.Sprintf("NewNeighbourhood: grid %dx%d must be positive", rows, columns))
	}
	switch kind {
	case VonNeumann, "":
		return &gridNeighbourhood{kind: VonNeumann, rows: rows, columns: columns, offsets: vonNeumannOffsets}
	case Moore:
		return &gridNeighbourhood{kind: Moore, rows: rows, columns: columns, offsets: mooreOffsets}
	default:
		panic(fmt.Sprintf("NewNeighbourhood: unknown kind %q", kind))
	}
}

func (n *gridNeighbourhood) Kind() NeighbourhoodKind { return n.kind }

// Neighbours returns the adjacent cells of (row, column) clipped to the grid, in a fixed order.
func (n *gridNeighbourhood) Neighbours(row, column int) []Location {
	if row < 0 || row >= n.rows || column < 0 || column >= n.columns {
		panic(fmt.Sprintf("Neighbours: cell (%d,%d) outside %dx%d grid", row, column, n.rows, n.columns))
	}
	neighbours := make([]Location, 0, len(n.offsets))
	for _, off := range n.offsets {
		r, c := row+off.Row, column+off.Column
		if r >= 0 && r < n.rows && c >= 0 && c < n.columns {
			neighbours = append(neighbours, Location{Row: r, Column: c})
		}
	}
	return neighbours
}
