package spinglass

import (
	"hash/fnv"
	"math/rand"
)

// Seed identifies a reproducible problem generation. Two generations with
// the same Seed, weight spec and graph MUST produce identical weights.
type Seed int64

const (
	// SubsystemCouplings is the RNG subsystem for coupler weights.
	// Uses the master seed directly.
	SubsystemCouplings = "couplings"

	// SubsystemBiases is the RNG subsystem for qubit biases.
	SubsystemBiases = "biases"
)

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemCouplings: uses the master seed directly
//   - For all other subsystems: seed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	seed       Seed
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed Seed) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same name always returns the same *rand.Rand instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	derived := int64(p.seed)
	if name != SubsystemCouplings {
		derived ^= fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derived))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the master seed.
func (p *PartitionedRNG) Seed() Seed {
	return p.seed
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
