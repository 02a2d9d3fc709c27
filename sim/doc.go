// Package sim provides the floor-field cellular automaton for pedestrian evacuation.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - scenario.go: the static grid of clear, blocked and exit cells
//   - floorfield.go: the static floor field (Manhattan or Dijkstra) computed once per run
//   - pedestrian.go: per-agent state and the stochastic movement rule
//   - automaton.go: the generation loop with shuffled, claim-based conflict resolution
//
// # Architecture
//
// The sim package holds the engine; supporting pieces live in sub-packages:
//   - sim/stats/: quickselect order statistics and moments
//   - sim/trace/: per-generation evacuation trace and its compressed file format
//   - sim/scenarios/: built-in scenarios (supermarket, random map, corridor)
//
// # Determinism
//
// Every random draw comes from a PartitionedRNG owned by the caller. Placement, shuffling,
// movement sampling and scenario authoring each use their own stream, so a fixed seed and
// configuration reproduce a run exactly.
//
// # Concurrency
//
// One goroutine advances generations. The floor field is read-only after initialization.
// Other goroutines may call Snapshot, which copies state between generations.
package sim
