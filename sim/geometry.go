package sim

import "fmt"

// Location is a grid cell coordinate. Row 0 is the bottom row.
type Location struct {
	Row    int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("(%d,%d)", l.Row, l.Column)
}

// Rectangle is an axis-aligned block of cells anchored at its bottom-left cell.
// A rectangle with zero height or width covers no cells.
type Rectangle struct {
	Bottom int
	Left   int
	Height int
	Width  int
}

// NewRectangle builds a Rectangle, rejecting negative extents.
func NewRectangle(bottom, left, height, width int) (Rectangle, error) {
	if height < 0 {
		return Rectangle{}, fmt.Errorf("%w: rectangle height %d is negative", ErrInvalidDimension, height)
	}
	if width < 0 {
		return Rectangle{}, fmt.Errorf("%w: rectangle width %d is negative", ErrInvalidDimension, width)
	}
	return Rectangle{Bottom: bottom, Left: left, Height: height, Width: width}, nil
}

// Top is the last row covered by the rectangle.
func (r Rectangle) Top() int { return r.Bottom + r.Height - 1 }

// Right is the last column covered by the rectangle.
func (r Rectangle) Right() int { return r.Left + r.Width - 1 }

// Empty reports whether the rectangle covers no cells.
func (r Rectangle) Empty() bool { return r.Height <= 0 || r.Width <= 0 }

// ContainsCell reports whether (row, column) lies inside the rectangle or on its boundary.
func (r Rectangle) ContainsCell(row, column int) bool {
	return row >= r.Bottom && row <= r.Top() && column >= r.Left && column <= r.Right()
}

// Contains reports whether that lies entirely within r.
func (r Rectangle) Contains(that Rectangle) bool {
	return that.Bottom >= r.Bottom && that.Top() <= r.Top() &&
		that.Left >= r.Left && that.Right() <= r.Right()
}

// Intersects reports whether r and that share at least one cell.
func (r Rectangle) Intersects(that Rectangle) bool {
	if r.Empty() || that.Empty() {
		return false
	}
	return r.Left <= that.Right() && r.Right() >= that.Left &&
		r.Top() >= that.Bottom && r.Bottom <= that.Top()
}

// IntersectsAny reports whether r shares a cell with any of rects.
func (r Rectangle) IntersectsAny(rects []Rectangle) bool {
	for _, other := range rects {
		if r.Intersects(other) {
			return true
		}
	}
	return false
}

// ManhattanDistance returns the L1 distance from (row, column) to the nearest cell
// of the rectangle; zero when the cell is inside or on the boundary.
func (r Rectangle) ManhattanDistance(row, column int) int {
	dr := 0
	switch {
	case row < r.Bottom:
		dr = r.Bottom - row
	case row > r.Top():
		dr = row - r.Top()
	}
	dc := 0
	switch {
	case column < r.Left:
		dc = r.Left - column
	case column > r.Right():
		dc = column - r.Right()
	}
	return dr + dc
}

// Cells returns every cell covered by the rectangle in row-major order.
func (r Rectangle) Cells() []Location {
	if r.Empty() {
		return nil
	}
	cells := make([]Location, 0, r.Height*r.Width)
	for row := r.Bottom; row <= r.Top(); row++ {
		for col := r.Left; col <= r.Right(); col++ {
			cells = append(cells, Location{Row: row, Column: col})
		}
	}
	return cells
}

func (r Rectangle) String() string {
	return fmt.Sprintf("Rectangle(bottom=%d, left=%d, height=%d, width=%d)", r.Bottom, r.Left, r.Height, r.Width)
}
