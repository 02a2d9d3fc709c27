package sim

import (
	"container/heap"
	"fmt"
	"math"
)

// FloorFieldKind selects the algorithm used to compute the static floor field.
type FloorFieldKind string

const (
	// ManhattanField uses the L1 distance to the nearest exit rectangle, ignoring obstacles.
	ManhattanField FloorFieldKind = "manhattan"
	// DijkstraField uses shortest paths over non-blocked cells under a neighbourhood.
	DijkstraField FloorFieldKind = "dijkstra"
)

var validFloorFields = map[FloorFieldKind]bool{
	ManhattanField: true,
	DijkstraField:  true,
	"":             true, // empty defaults to manhattan
}

// IsValidFloorField returns true if the given name is a recognized floor field algorithm.
func IsValidFloorField(name string) bool {
	return validFloorFields[FloorFieldKind(name)]
}

// FloorFieldConfig selects a floor field algorithm. The zero value is the Manhattan field.
// Neighbourhood only affects the Dijkstra field and defaults to von Neumann.
type FloorFieldConfig struct {
	Kind          FloorFieldKind
	Neighbourhood NeighbourhoodKind
}

// Validate checks the algorithm and neighbourhood names.
func (c FloorFieldConfig) Validate() error {
	if !validFloorFields[c.Kind] {
		return fmt.Errorf("%w: unknown floor field %q; valid: manhattan, dijkstra", ErrInvalidConfig, c.Kind)
	}
	if !validNeighbourhoods[c.Neighbourhood] {
		return fmt.Errorf("%w: unknown neighbourhood %q; valid: von-neumann, moore", ErrInvalidConfig, c.Neighbourhood)
	}
	return nil
}

// FloorField is a static scalar-per-cell attractiveness map: the closer a cell is to an exit,
// the larger its value. Exit cells hold the maximum. Blocked cells hold math.Inf(-1).
//
// Initialize must be called before Field; afterwards the field is read-only and needs no locking.
type FloorField interface {
	Kind() FloorFieldKind
	Initialize()
	Initialized() bool
	Field(row, column int) float64
	// Values returns a row-major copy of the field.
	Values() []float64
}

// blockedField marks cells that are never read by a living query.
var blockedField = math.Inf(-1)

func newFloorField(s *Scenario, cfg FloorFieldConfig) FloorField {
	base := staticField{scenario: s, values: make([]float64, s.rows*s.columns)}
	switch cfg.Kind {
	case DijkstraField:
		return &dijkstraField{
			staticField:   base,
			neighbourhood: NewNeighbourhood(cfg.Neighbourhood, s.rows, s.columns),
		}
	default:
		return &manhattanField{staticField: base}
	}
}

// staticField holds the storage and lookup shared by both algorithms.
type staticField struct {
	scenario    *Scenario
	values      []float64
	initialized bool
}

func (f *staticField) Initialized() bool { return f.initialized }

func (f *staticField) Field(row, column int) float64 {
	if !f.initialized {
		panic("Field: floor field read before Initialize")
	}
	return f.values[f.scenario.mustIndex("Field", row, column)]
}

func (f *staticField) Values() []float64 {
	return append([]float64(nil), f.values...)
}

// normalize turns distances into attraction: field = maxDistance - d.
// Unreachable cells (infinite distance) get the field minimum, zero.
func (f *staticField) normalize(dist []float64, maxDistance float64) {
	for i, d := range dist {
		switch {
		case f.scenario.cells[i] == Blocked:
			f.values[i] = blockedField
		case math.IsInf(d, 1):
			f.values[i] = 0
		default:
			f.values[i] = maxDistance - d
		}
	}
	f.initialized = true
}

// === Manhattan ===

type manhattanField struct {
	staticField
}

func (f *manhattanField) Kind() FloorFieldKind { return ManhattanField }

// Initialize computes, for each cell, the minimum Manhattan distance to any exit rectangle.
func (f *manhattanField) Initialize() {
	s := f.scenario
	dist := make([]float64, len(f.values))
	maxDistance := 0.0
	for row := 0; row < s.rows; row++ {
		for col := 0; col < s.columns; col++ {
			idx := s.index(row, col)
			d := math.Inf(1)
			for _, exit := range s.exits {
				d = math.Min(d, float64(exit.ManhattanDistance(row, col)))
			}
			dist[idx] = d
			if s.cells[idx] != Blocked && !math.IsInf(d, 1) {
				maxDistance = math.Max(maxDistance, d)
			}
		}
	}
	f.normalize(dist, maxDistance)
}

// === Dijkstra ===

type dijkstraField struct {
	staticField
	neighbourhood Neighbourhood
}

func (f *dijkstraField) Kind() FloorFieldKind { return DijkstraField }

// fieldNode is a priority queue entry. Entries are never updated in place: a cheaper path
// pushes a new entry and the stale one is skipped when popped.
type fieldNode struct {
	index    int
	priority float64
}

// nodeQueue implements heap.Interface ordered by priority, ties broken by cell index
// so that the relaxation order is fully deterministic.
type nodeQueue []fieldNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].index < q[j].index
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) {
	*q = append(*q, x.(fieldNode))
}

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[0 : n-1]
	return item
}

// Initialize runs a multi-source Dijkstra from every exit cell over non-blocked cells.
// The edge weight between adjacent cells is sqrt(|drow| + |dcol|).
func (f *dijkstraField) Initialize() {
	s := f.scenario
	dist := make([]float64, len(f.values))
	pq := make(nodeQueue, 0, len(s.cells))
	for i, status := range s.cells {
		if status == Exit {
			dist[i] = 0
			pq = append(pq, fieldNode{index: i, priority: 0})
		} else {
			dist[i] = math.Inf(1)
		}
	}
	heap.Init(&pq)

	maxDistance := 0.0
	for pq.Len() > 0 {
		node := heap.Pop(&pq).(fieldNode)
		if node.priority > dist[node.index] {
			continue // stale entry
		}
		maxDistance = math.Max(maxDistance, node.priority)

		row, col := node.index/s.columns, node.index%s.columns
		for _, nb := range f.neighbourhood.Neighbours(row, col) {
			nIdx := s.index(nb.Row, nb.Column)
			if s.cells[nIdx] == Blocked {
				continue
			}
			delta := math.Sqrt(float64(abs(nb.Row-row) + abs(nb.Column-col)))
			if alt := node.priority + delta; alt < dist[nIdx] {
				dist[nIdx] = alt
				heap.Push(&pq, fieldNode{index: nIdx, priority: alt})
			}
		}
	}
	f.normalize(dist, maxDistance)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
