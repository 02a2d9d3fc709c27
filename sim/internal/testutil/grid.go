// Package testutil provides shared test infrastructure for the evacuation simulator.
// It holds ASCII grid fixtures and assertion helpers used across sim/ and its sub-packages.
package testutil

import (
	"math"
	"testing"
)

// Cell is a (row, column) pair. Row 0 is the bottom row.
type Cell struct {
	Row    int
	Column int
}

// GridFixture is a scenario drawn as ASCII art.
type GridFixture struct {
	Rows    int
	Columns int
	Exits   []Cell
	Blocks  []Cell
	Agents  []Cell
}

// ParseGrid reads lines top row first, the same orientation Snapshot.String prints:
// '#' blocked, 'E' exit, 'o' pedestrian, '.' clear. Cells are listed in row-major order
// from the bottom row.
func ParseGrid(t *testing.T, lines ...string) GridFixture {
	t.Helper()
	if len(lines) == 0 {
		t.Fatal("ParseGrid: no lines")
	}
	g := GridFixture{Rows: len(lines), Columns: len(lines[0])}
	for row := 0; row < g.Rows; row++ {
		line := lines[g.Rows-1-row]
		if len(line) != g.Columns {
			t.Fatalf("ParseGrid: line %q has %d columns, want %d", line, len(line), g.Columns)
		}
		for col, ch := range line {
			cell := Cell{Row: row, Column: col}
			switch ch {
			case '#':
				g.Blocks = append(g.Blocks, cell)
			case 'E':
				g.Exits = append(g.Exits, cell)
			case 'o':
				g.Agents = append(g.Agents, cell)
			case '.':
			default:
				t.Fatalf("ParseGrid: unexpected %q in line %q", ch, line)
			}
		}
	}
	return g
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
