package incident

import (
	"math"

	"github.com/incident-sim/incident-sim/sim"
)

// Database models contention without an explicit waiting queue: service
// latency grows with the number of requests in flight, and once that number
// reaches DeadlockThreshold the failure rate jumps to 1-DeadlockAvailability.
type Database struct {
	ctx   *sim.Context
	queue *sim.ServiceQueue

	LatencyBase          float64
	LatencyA             float64
	LatencyB             float64
	Availability         float64
	DeadlockThreshold    int
	DeadlockAvailability float64

	concurrent    int
	maxConcurrent int
	deadlocked    int // requests served at or above the threshold

	// current window
	load int
}

// NewDatabase creates a database whose pool admits cfg.Workers concurrent
// requests and rejects the rest outright (zero waiting slots).
func NewDatabase(ctx *sim.Context, cfg DatabaseConfig) *Database {
	d := &Database{
		ctx:                  ctx,
		queue:                sim.NewServiceQueue(ctx.Sim, DatabaseStage, 0, cfg.Workers),
		LatencyBase:          cfg.LatencyBase,
		LatencyA:             cfg.LatencyA,
		LatencyB:             cfg.LatencyB,
		Availability:         cfg.Availability,
		DeadlockThreshold:    cfg.DeadlockThreshold,
		DeadlockAvailability: cfg.DeadlockAvailability,
	}
	ctx.Stats.OnFlush(d.flush)
	return d
}

// Queue exposes the connection pool.
func (d *Database) Queue() *sim.ServiceQueue { return d.queue }

// Concurrent returns the number of requests currently being served.
func (d *Database) Concurrent() int { return d.concurrent }

// MaxConcurrent returns the highest in-flight count observed.
func (d *Database) MaxConcurrent() int { return d.maxConcurrent }

// Deadlocked returns how many requests resolved while at or above the threshold.
func (d *Database) Deadlocked() int { return d.deadlocked }

// Accept implements sim.Stage.
func (d *Database) Accept(ev *sim.Event, done func(sim.Outcome)) {
	d.load++
	d.queue.Submit(ev, d.work, done)
}

// MeanLatency returns the expected latency with n requests in flight.
func (d *Database) MeanLatency(n int) float64 {
	return d.LatencyBase + d.LatencyA*math.Pow(d.LatencyB, float64(n))
}

// work draws the latency, waits, then draws the failure. The draw order is
// fixed so a seed and an arrival order fully determine the stream.
func (d *Database) work(ev *sim.Event, finish func(sim.Outcome)) {
	d.concurrent++
	if d.concurrent > d.maxConcurrent {
		d.maxConcurrent = d.concurrent
	}
	mean := d.MeanLatency(d.concurrent)
	std := 5 + mean/500
	latency := math.Max(0, math.Floor(d.ctx.RNG.Normal(mean, std)))

	d.ctx.Sim.After(latency, func() {
		avail := d.ctx.RNG.Float64()
		threshold := d.Availability
		if d.concurrent >= d.DeadlockThreshold {
			threshold = d.DeadlockAvailability
			d.deadlocked++
		}
		d.concurrent--
		if failsAt(avail, threshold) {
			finish(sim.Failed(DatabaseStage))
			return
		}
		finish(sim.Succeeded())
	})
}

// failsAt reports whether a uniform draw fails against an availability.
// A draw equal to the availability succeeds.
func failsAt(draw, availability float64) bool {
	return draw > availability
}

func (d *Database) flush() {
	d.ctx.Stats.Record(StatDatabaseLoad, float64(d.load))
	d.ctx.Stats.Record(StatDatabaseCapacity, float64(d.queue.Workers()))
	d.load = 0
}
