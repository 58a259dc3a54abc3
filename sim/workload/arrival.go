package workload

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/incident-sim/incident-sim/sim"
)

// RateUnit is the span, in ticks, over which arrival rates are expressed.
// A rate of 1000 means 1000 events per 1000 ticks.
const RateUnit = 1000.0

// ArrivalSampler generates inter-arrival times.
type ArrivalSampler interface {
	// SampleIAT returns the next gap in ticks for the given rate (events per RateUnit).
	SampleIAT(rng *sim.SeededSource, rate float64) float64
}

// PoissonSampler generates exponentially-distributed inter-arrival times (CV=1).
type PoissonSampler struct{}

func (PoissonSampler) SampleIAT(rng *sim.SeededSource, rate float64) float64 {
	return rng.ExpFloat64() * RateUnit / rate
}

// UniformSampler spaces arrivals evenly and consumes no randomness.
type UniformSampler struct{}

func (UniformSampler) SampleIAT(_ *sim.SeededSource, rate float64) float64 {
	return RateUnit / rate
}

// NewArrivalSampler creates a sampler by process name ("poisson" or "uniform").
// An empty name defaults to poisson.
func NewArrivalSampler(process string) (ArrivalSampler, error) {
	switch process {
	case "", "poisson":
		return PoissonSampler{}, nil
	case "uniform":
		return UniformSampler{}, nil
	default:
		return nil, fmt.Errorf("unknown arrival process %q; valid: poisson, uniform", process)
	}
}

// Generator drives a fixed number of synthetic events into a stage.
// The rate may change while the run is in progress.
type Generator struct {
	ctx     *sim.Context
	sampler ArrivalSampler
	rate    float64

	sent     int
	resolved int
	events   []*sim.Event
}

// NewGenerator creates a generator with an initial rate in events per RateUnit.
func NewGenerator(ctx *sim.Context, sampler ArrivalSampler, rate float64) *Generator {
	if sampler == nil {
		sampler = PoissonSampler{}
	}
	return &Generator{ctx: ctx, sampler: sampler, rate: rate}
}

// SetRate changes the arrival rate for every gap sampled from now on.
func (g *Generator) SetRate(rate float64) {
	logrus.Debugf("[tick %09.2f] arrival rate %v -> %v", g.ctx.Now(), g.rate, rate)
	g.rate = rate
}

// Rate returns the current arrival rate.
func (g *Generator) Rate() float64 { return g.rate }

// SetRateAt schedules a rate change at virtual time t.
func (g *Generator) SetRateAt(t, rate float64) {
	g.ctx.Sim.At(t, func() { g.SetRate(rate) })
}

// Drive schedules n arrivals into target. Each event's Outcome and Resolved
// time are set when target reports back. Events fills up as arrivals happen
// and is complete once the simulation drains.
func (g *Generator) Drive(target sim.Stage, n int) {
	if n <= 0 {
		return
	}
	g.events = make([]*sim.Event, 0, n)
	var next func()
	next = func() {
		ev := sim.NewEvent(int64(g.sent), g.ctx.Now())
		g.sent++
		g.events = append(g.events, ev)
		target.Accept(ev, func(out sim.Outcome) {
			ev.Outcome = out
			ev.Resolved = g.ctx.Now()
			g.resolved++
		})
		if g.sent < n {
			g.ctx.Sim.After(g.sampler.SampleIAT(g.ctx.RNG, g.rate), next)
		}
	}
	g.ctx.Sim.After(g.sampler.SampleIAT(g.ctx.RNG, g.rate), next)
}

// Events returns every event generated so far, in arrival order.
func (g *Generator) Events() []*sim.Event { return g.events }

// Sent returns the number of arrivals performed.
func (g *Generator) Sent() int { return g.sent }

// Resolved returns the number of arrivals whose outcome is known.
func (g *Generator) Resolved() int { return g.resolved }
