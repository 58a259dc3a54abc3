package incident

import (
	"github.com/incident-sim/incident-sim/sim"
)

// Interceptor observes or mutates an event right before the Client forwards it.
type Interceptor func(ev *sim.Event)

// Client is the front door. It never rejects (unbounded queue) but only lets
// a fixed number of callers be in flight at once.
type Client struct {
	ctx     *sim.Context
	wrapped sim.Stage
	queue   *sim.ServiceQueue
	before  Interceptor

	// current window
	load           int
	latencies      []float64
	availabilities []float64
	events         []*sim.Event
}

// NewClient creates a client forwarding to wrapped. before may be nil.
func NewClient(ctx *sim.Context, wrapped sim.Stage, workers int, before Interceptor) *Client {
	c := &Client{
		ctx:     ctx,
		wrapped: wrapped,
		queue:   sim.NewServiceQueue(ctx.Sim, ClientStage, sim.Unbounded, workers),
		before:  before,
	}
	ctx.Stats.OnFlush(c.flush)
	return c
}

// Queue exposes the client's worker pool.
func (c *Client) Queue() *sim.ServiceQueue { return c.queue }

// Accept implements sim.Stage.
func (c *Client) Accept(ev *sim.Event, done func(sim.Outcome)) {
	c.load++
	c.queue.Submit(ev, c.work, done)
}

func (c *Client) work(ev *sim.Event, finish func(sim.Outcome)) {
	if c.before != nil {
		c.before(ev)
	}
	start := c.ctx.Now()
	c.wrapped.Accept(ev, func(out sim.Outcome) {
		if out.OK() {
			c.availabilities = append(c.availabilities, 1)
		} else {
			c.availabilities = append(c.availabilities, 0)
		}
		c.events = append(c.events, ev)
		c.latencies = append(c.latencies, c.ctx.Now()-start)
		finish(out)
	})
}

func (c *Client) flush() {
	stats := c.ctx.Stats
	stats.Record(StatTick, c.ctx.Now())
	stats.Record(StatClientLoad, float64(c.load))
	stats.Record(StatClientMeanLatency, sim.Mean(c.latencies))
	stats.Record(StatClientMeanAvail, sim.Mean(c.availabilities))
	stats.RecordEvents(StatClientEvents, c.events)
	c.load = 0
	c.latencies = nil
	c.availabilities = nil
	c.events = nil
}
