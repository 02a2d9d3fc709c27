package sim

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
)

// SimulationKey is the seed of an evacuation run. Equal keys and equal configuration
// give identical evacuations.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// Random streams of an evacuation run.
const (
	SubsystemPlacement = "placement" // uniform agent placement, seeded with the key itself
	SubsystemShuffle   = "shuffle"   // processing order of each generation
	SubsystemDecision  = "decision"  // movement sampling
	SubsystemScenario  = "scenario"  // random floor plans
)

// PartitionedRNG hands out one generator per stream, so placing more agents leaves the
// shuffle and decision streams untouched. Streams other than placement are seeded with
// key XOR fnv1a64(name). Owned by the goroutine driving the automaton.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the stream for name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	seed := int64(p.key)
	if name != SubsystemPlacement {
		seed ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(seed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the run seed.
func (p *PartitionedRNG) Key() SimulationKey { return p.key }

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// SampleDiscrete picks an index with probability proportional to weights[i].
// It draws u uniformly in [0, sum) and returns the first index whose running sum exceeds u,
// so the result is a deterministic function of one draw and the slice order.
// Panics if weights is empty or its sum is not a positive finite number.
func SampleDiscrete(rng *rand.Rand, weights []float64) int {
	if len(weights) == 0 {
		panic("SampleDiscrete: weights must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if !(sum > 0) || math.IsInf(sum, 1) {
		panic(fmt.Sprintf("SampleDiscrete: sum of weights must be positive and finite, got %v", sum))
	}
	u := rng.Float64() * sum
	acc := 0.0
	for i, w := range weights {
		acc += w
		if acc > u {
			return i
		}
	}
	// u < sum up to rounding; fall back to the last positive weight.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return len(weights) - 1
}

// Bernoulli returns true with probability p.
func Bernoulli(rng *rand.Rand, p float64) bool {
	if p < 0 || p > 1 {
		panic(fmt.Sprintf("Bernoulli: probability %v must be in [0, 1]", p))
	}
	return rng.Float64() < p
}
