package sim

import "github.com/sirupsen/logrus"

// Context is the state one simulation run may touch: the virtual clock,
// the seeded randomness source and the statistics recorder.
//
// A Context is reused across runs; Reset must be called before each one.
type Context struct {
	Sim   *Simulator
	RNG   *SeededSource
	Stats *StatWindow

	resets int
}

// NewContext creates a context seeded with seed whose statistics windows are
// sampleDuration ticks long. The context is already reset.
func NewContext(seed string, sampleDuration float64) *Context {
	if seed == "" {
		seed = DefaultSeed
	}
	if sampleDuration <= 0 {
		sampleDuration = DefaultSampleDuration
	}
	c := &Context{
		RNG:   NewSeededSource(seed),
		Stats: NewStatWindow(sampleDuration),
	}
	c.Reset()
	return c
}

// Reset discards the clock, every pending timer, all statistics and flush
// hooks, rewinds the randomness source and burns the warm-up draws.
// After Reset nothing from a previous run is observable.
func (c *Context) Reset() {
	c.Sim = NewSimulator()
	c.Stats.Reset()
	c.RNG.Reseed()
	c.RNG.Discard(WarmupDraws)
	c.Sim.Every(c.Stats.Interval, func() { c.Stats.Flush(c.Sim.Now()) })
	c.resets++
	logrus.Debugf("context reset #%d (seed=%q)", c.resets, c.RNG.Seed())
}

// Resets returns how many times the context has been reset.
func (c *Context) Resets() int { return c.resets }

// Now returns the current virtual time.
func (c *Context) Now() float64 { return c.Sim.Now() }

// Drain runs the simulation until all work has resolved and closes the
// trailing partial window so its events are not lost.
func (c *Context) Drain() {
	c.Sim.Run()
	if c.Sim.Now() > c.Stats.LastFlush() {
		c.Stats.Flush(c.Sim.Now())
	}
}
