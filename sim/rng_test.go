package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draw(s *SeededSource, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Float64()
	}
	return out
}

func TestSeededSource_SameSeed_SameStream(t *testing.T) {
	// GIVEN two sources with the same textual seed
	a := NewSeededSource(DefaultSeed)
	b := NewSeededSource(DefaultSeed)

	// WHEN both are drawn from
	// THEN they yield identical values
	assert.Equal(t, draw(a, 16), draw(b, 16))
}

func TestSeededSource_DifferentSeeds_DifferentStreams(t *testing.T) {
	a := NewSeededSource("quartermaster")
	b := NewSeededSource("quartermistress")
	assert.NotEqual(t, draw(a, 8), draw(b, 8))
}

func TestSeededSource_Reseed_RewindsToStart(t *testing.T) {
	// GIVEN a source that has already produced values
	s := NewSeededSource(DefaultSeed)
	first := draw(s, 10)
	_ = draw(s, 37)

	// WHEN it is reseeded
	s.Reseed()

	// THEN the stream starts over and the draw counter is reset
	assert.Equal(t, uint64(0), s.Draws())
	assert.Equal(t, first, draw(s, 10))
}

func TestSeededSource_Discard_SkipsValues(t *testing.T) {
	s := NewSeededSource(DefaultSeed)
	all := draw(s, 5)

	s.Reseed()
	s.Discard(WarmupDraws)
	assert.Equal(t, all[WarmupDraws:], draw(s, 5-WarmupDraws))
}

func TestSeededSource_Uint64_CountsDraws(t *testing.T) {
	s := NewSeededSource(DefaultSeed)
	for i := 0; i < 3; i++ {
		s.Uint64()
	}
	assert.Equal(t, uint64(3), s.Draws())
}

func TestSeededSource_Float64_InUnitInterval(t *testing.T) {
	s := NewSeededSource(DefaultSeed)
	for i := 0; i < 10000; i++ {
		v := s.Float64()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestSeededSource_Normal_MatchesMoments(t *testing.T) {
	// GIVEN many draws from N(30, 5)
	s := NewSeededSource(DefaultSeed)
	const n = 20000
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		v := s.Normal(30, 5)
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "draw %d not finite", i)
		sum += v
		sumSq += v * v
	}

	// THEN sample mean and standard deviation are close to the parameters
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)
	assert.InDelta(t, 30, mean, 0.15)
	assert.InDelta(t, 5, std, 0.15)
}

func TestSeededSource_StandardNormal_ConsumesTwoValues(t *testing.T) {
	s := NewSeededSource(DefaultSeed)
	before := s.Draws()
	s.StandardNormal()
	assert.GreaterOrEqual(t, s.Draws()-before, uint64(2))
}
