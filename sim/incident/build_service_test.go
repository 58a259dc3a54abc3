package incident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incident-sim/incident-sim/sim"
)

// slowDependency succeeds after d ticks.
func slowDependency(ctx *sim.Context, d float64) sim.Stage {
	return sim.StageFunc(func(ev *sim.Event, done func(sim.Outcome)) {
		ctx.Sim.After(d, func() { done(sim.Succeeded()) })
	})
}

func TestBuildService_QueueBound_RejectsAndCounts(t *testing.T) {
	// GIVEN 2 workers and 5 waiting slots in front of a slow dependency
	ctx := sim.NewContext(sim.DefaultSeed, sim.DefaultSampleDuration)
	cfg := DefaultConfig().BuildService
	cfg.Workers = 2
	cfg.QueueCapacity = 5
	svc := NewBuildService(ctx, slowDependency(ctx, 100), cfg)

	// WHEN 10 builds arrive at once
	outcomes := make([]sim.Outcome, 10)
	for i := range outcomes {
		svc.Accept(sim.NewEvent(int64(i), 0), func(out sim.Outcome) { outcomes[i] = out })
	}

	// THEN 3 are rejected immediately and counted
	assert.Equal(t, 3.0, ctx.Stats.Get(StatServiceRejected))
	assert.Equal(t, 3, svc.Queue().Rejected(), "queue and stats agree")
	for _, out := range outcomes[7:] {
		assert.Equal(t, sim.Rejected(BuildServiceStage), out)
	}

	// AND the admitted 7 succeed without the queue ever exceeding 5
	ctx.Drain()
	for i, out := range outcomes[:7] {
		assert.True(t, out.OK(), "build %d", i)
	}
	assert.Equal(t, 5, svc.Queue().MaxLen())
	assert.LessOrEqual(t, ctx.Stats.Get(StatServiceMaxQueueSize), 5.0)
	assert.Equal(t, 2, svc.Queue().MaxInFlight())
}

func TestBuildService_Work_AddsComputeCostBeforeDependency(t *testing.T) {
	ctx := sim.NewContext(sim.DefaultSeed, sim.DefaultSampleDuration)
	var calledAt float64
	dep := sim.StageFunc(func(ev *sim.Event, done func(sim.Outcome)) {
		calledAt = ctx.Now()
		done(sim.Succeeded())
	})
	svc := NewBuildService(ctx, dep, DefaultConfig().BuildService)

	svc.Accept(sim.NewEvent(0, 0), func(sim.Outcome) {})
	ctx.Drain()

	// normal(8, 2): well inside (0, 20) for this seed
	assert.Greater(t, calledAt, 0.0)
	assert.Less(t, calledAt, 20.0)
}

func TestBuildService_Flush_RecordsWindowSeries(t *testing.T) {
	// GIVEN a dependency that fails every other request
	ctx := sim.NewContext(sim.DefaultSeed, 1000)
	n := 0
	dep := sim.StageFunc(func(ev *sim.Event, done func(sim.Outcome)) {
		n++
		if n%2 == 0 {
			done(sim.Failed(DatabaseStage))
			return
		}
		done(sim.Succeeded())
	})
	svc := NewBuildService(ctx, dep, DefaultConfig().BuildService)

	// WHEN 4 builds arrive in the first window
	for i := 0; i < 4; i++ {
		ctx.Sim.At(float64(100*i), func() { svc.Accept(sim.NewEvent(int64(i), ctx.Now()), func(sim.Outcome) {}) })
	}
	ctx.Drain()

	// THEN the single (partial) window holds load, availability and throughput
	require.Equal(t, 1, ctx.Stats.Flushes())
	assert.Equal(t, []float64{4}, ctx.Stats.Series(StatServiceLoad))
	assert.Equal(t, []float64{0.5}, ctx.Stats.Series(StatServiceMeanAvail))
	assert.Equal(t, []float64{4}, ctx.Stats.Series(StatServiceThroughput))
	assert.Equal(t, []float64{0}, ctx.Stats.Series(StatServiceQueueSize))
	assert.Equal(t, []float64{0}, ctx.Stats.Series(StatServiceMeanLatency), "dependency answers instantly")
}
