package sim

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
)

// DefaultSeed is the textual seed every simulation context is derived from.
const DefaultSeed = "quartermaster"

// WarmupDraws is the number of values discarded after every reseed.
const WarmupDraws = 2

// === SeededSource ===

// SeededSource is a deterministic pseudo-random stream derived from a string seed.
// It implements math/rand/v2.Source so it can back gonum distributions.
//
// Derivation: the seed string is hashed with FNV-1a and FNV-1 (64-bit) to obtain
// the two PCG state words. Reseed always restores the same stream, so the Nth
// reseed of a source yields exactly the values of the first.
//
// Thread-safety: NOT thread-safe. One source belongs to one simulation context.
type SeededSource struct {
	seed  string
	pcg   *rand.PCG
	rng   *rand.Rand
	draws uint64
}

// NewSeededSource creates a source positioned at the start of seed's stream.
func NewSeededSource(seed string) *SeededSource {
	s := &SeededSource{seed: seed, pcg: rand.NewPCG(0, 0)}
	s.rng = rand.New(s)
	s.Reseed()
	return s
}

// Reseed rewinds the stream to its first value.
func (s *SeededSource) Reseed() {
	hi, lo := deriveState(s.seed)
	s.pcg.Seed(hi, lo)
	s.draws = 0
}

// Seed returns the textual seed.
func (s *SeededSource) Seed() string {
	return s.seed
}

// Draws returns how many 64-bit words have been consumed since the last reseed.
func (s *SeededSource) Draws() uint64 {
	return s.draws
}

// Uint64 implements rand.Source.
func (s *SeededSource) Uint64() uint64 {
	s.draws++
	return s.pcg.Uint64()
}

// Float64 returns a value in [0, 1).
func (s *SeededSource) Float64() float64 {
	return s.rng.Float64()
}

// ExpFloat64 returns an exponentially distributed value with rate 1.
func (s *SeededSource) ExpFloat64() float64 {
	return s.rng.ExpFloat64()
}

// Discard consumes n values from the stream.
func (s *SeededSource) Discard(n int) {
	for i := 0; i < n; i++ {
		s.Float64()
	}
}

// StandardNormal draws from N(0, 1) with the Box-Muller transform.
// Always consumes at least two values; zero draws are rejected so log(0) cannot occur.
func (s *SeededSource) StandardNormal() float64 {
	var u, v float64
	for u == 0 {
		u = s.Float64()
	}
	for v == 0 {
		v = s.Float64()
	}
	return math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
}

// Normal draws from N(mean, std).
func (s *SeededSource) Normal(mean, std float64) float64 {
	return s.StandardNormal()*std + mean
}

func deriveState(seed string) (uint64, uint64) {
	a := fnv.New64a()
	a.Write([]byte(seed))
	b := fnv.New64()
	b.Write([]byte(seed))
	return a.Sum64(), b.Sum64()
}
