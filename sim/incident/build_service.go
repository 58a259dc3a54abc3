package incident

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/incident-sim/incident-sim/sim"
)

// BuildService is a queued compute stage. Every admitted build costs a
// normally distributed amount of work before it calls its dependency.
type BuildService struct {
	ctx     *sim.Context
	wrapped sim.Stage
	queue   *sim.ServiceQueue
	cost    distuv.Normal

	// current window
	load           int
	completed      int
	latencies      []float64
	availabilities []float64
}

// NewBuildService creates a build service forwarding to wrapped.
func NewBuildService(ctx *sim.Context, wrapped sim.Stage, cfg BuildServiceConfig) *BuildService {
	b := &BuildService{
		ctx:     ctx,
		wrapped: wrapped,
		queue:   sim.NewServiceQueue(ctx.Sim, BuildServiceStage, cfg.QueueCapacity, cfg.Workers),
		cost:    distuv.Normal{Mu: cfg.WorkMean, Sigma: cfg.WorkStdDev, Src: ctx.RNG},
	}
	ctx.Stats.OnFlush(b.flush)
	return b
}

// Queue exposes the build queue, e.g. for scenario overrides.
func (b *BuildService) Queue() *sim.ServiceQueue { return b.queue }

// Accept implements sim.Stage. The queue's admission control rejects
// without taking a slot; each rejection is mirrored into the window stats.
func (b *BuildService) Accept(ev *sim.Event, done func(sim.Outcome)) {
	b.load++
	rejected := b.queue.Rejected()
	b.queue.Submit(ev, b.work, done)
	if b.queue.Rejected() > rejected {
		b.ctx.Stats.Add(StatServiceRejected, 1)
	}
}

func (b *BuildService) work(ev *sim.Event, finish func(sim.Outcome)) {
	b.ctx.Stats.Max(StatServiceMaxQueueSize, float64(b.queue.Len()))
	b.ctx.Sim.After(b.cost.Rand(), func() {
		start := b.ctx.Now()
		b.wrapped.Accept(ev, func(out sim.Outcome) {
			if out.OK() {
				b.availabilities = append(b.availabilities, 1)
			} else {
				b.availabilities = append(b.availabilities, 0)
			}
			b.completed++
			b.latencies = append(b.latencies, b.ctx.Now()-start)
			finish(out)
		})
	})
}

func (b *BuildService) flush() {
	stats := b.ctx.Stats
	stats.Record(StatServiceLoad, float64(b.load))
	stats.Record(StatServiceMeanLatency, sim.Mean(b.latencies))
	stats.Record(StatServiceMeanAvail, sim.Mean(b.availabilities))
	stats.Record(StatServiceQueueSize, float64(b.queue.Len()))
	stats.Record(StatServiceThroughput, float64(b.completed)/(1000/stats.Interval))
	b.load = 0
	b.completed = 0
	b.latencies = nil
	b.availabilities = nil
}
