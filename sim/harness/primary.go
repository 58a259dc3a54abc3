package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultStatusSchedule is the cron schedule of the primary's status line.
const DefaultStatusSchedule = "@every 10s"

// WorkerCount resolves the pool size: n if positive, else one less than the
// number of CPUs, and never less than one.
func WorkerCount(n int) int {
	if n > 0 {
		return n
	}
	return max(runtime.NumCPU()-1, 1)
}

// Options configures a Primary.
type Options struct {
	Workers        int           // <= 0 uses WorkerCount
	NewRunner      RunnerFactory // required
	StatusSchedule string        // cron schedule; "" uses DefaultStatusSchedule, "-" disables
}

// Result is the outcome of a sweep.
type Result struct {
	SessionID  uuid.UUID
	Workers    int
	Completed  []*JobResult
	Lost       []*FaultError // jobs whose worker crashed; never re-queued
	Unassigned []Job         // jobs left when every worker had crashed
	Progress   int           // progress reports received
	Elapsed    time.Duration
}

// Runs returns the number of runs in completed jobs.
func (r *Result) Runs() int {
	n := 0
	for _, j := range r.Completed {
		n += len(j.Runs)
	}
	return n
}

// FailedRuns returns the number of runs in completed jobs that returned an error.
func (r *Result) FailedRuns() int {
	n := 0
	for _, j := range r.Completed {
		n += j.Failed()
	}
	return n
}

// Err summarizes lost and unassigned work, or nil if every job completed.
func (r *Result) Err() error {
	var errs []error
	for _, f := range r.Lost {
		errs = append(errs, f)
	}
	if len(r.Unassigned) > 0 {
		errs = append(errs, fmt.Errorf("%d jobs never assigned: no workers left", len(r.Unassigned)))
	}
	return errors.Join(errs...)
}

// Primary hands out jobs to pulling workers and stops them all once every
// worker is idle and no job remains.
type Primary struct {
	opts Options

	// state below is owned by the Run goroutine, except available.
	jobs      []Job
	next      int
	busy      int
	available atomic.Int64
	result    *Result
}

// NewPrimary creates a primary.
func NewPrimary(opts Options) *Primary {
	opts.Workers = WorkerCount(opts.Workers)
	if opts.StatusSchedule == "" {
		opts.StatusSchedule = DefaultStatusSchedule
	}
	return &Primary{opts: opts}
}

// Available returns the number of jobs not yet assigned.
func (p *Primary) Available() int { return int(p.available.Load()) }

// Run distributes jobs over the worker pool and blocks until all work has
// been handed out and every worker is idle, or ctx is cancelled.
func (p *Primary) Run(ctx context.Context, jobs []Job) (*Result, error) {
	if p.opts.NewRunner == nil {
		return nil, errors.New("harness: Options.NewRunner is required")
	}
	start := time.Now()
	p.jobs = jobs
	p.next = 0
	p.busy = p.opts.Workers
	p.available.Store(int64(len(jobs)))
	p.result = &Result{SessionID: uuid.New(), Workers: p.opts.Workers}

	logrus.Infof("Session %s: %d jobs (%d runs) across %d workers",
		p.result.SessionID, len(jobs), CountWork(jobs), p.opts.Workers)

	status, err := p.startStatus()
	if err != nil {
		return nil, err
	}
	if status != nil {
		defer status.Stop()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	inbox := make(chan Message, p.opts.Workers)
	var wg sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		w := newWorker(p.opts.NewRunner(), inbox)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(runCtx)
		}()
	}

	runErr := p.serve(runCtx, inbox)
	cancel()
	wg.Wait()

	p.result.Elapsed = time.Since(start)
	logrus.Infof("Session %s done in %v: %d jobs completed, %d runs (%d failed), %d jobs lost",
		p.result.SessionID, p.result.Elapsed.Round(time.Millisecond), len(p.result.Completed),
		p.result.Runs(), p.result.FailedRuns(), len(p.result.Lost))
	return p.result, runErr
}

// serve is the primary's message loop.
func (p *Primary) serve(ctx context.Context, inbox <-chan Message) error {
	for p.busy > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		var msg Message
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg = <-inbox:
		}

		switch msg.Kind {
		case RequestTask:
			if msg.Finished != nil {
				p.result.Completed = append(p.result.Completed, msg.Finished)
			}
			if p.next < len(p.jobs) {
				job := p.jobs[p.next]
				p.next++
				p.available.Add(-1)
				msg.reply <- Message{Kind: AssignTask, Job: &job}
				continue
			}
			p.busy--
			logrus.Debugf("worker %s idle, %d still busy", msg.WorkerID, p.busy)
		case ProgressReport:
			p.result.Progress++
			logrus.Debugf("worker %s: run %d (%d/%d)", msg.WorkerID, msg.Progress.RunID, msg.Progress.Current, msg.Progress.Total)
		case WorkerFault:
			p.busy--
			p.result.Lost = append(p.result.Lost, msg.Fault)
			logrus.Warnf("worker %s lost; job not re-queued", msg.WorkerID)
		default:
			logrus.Warnf("primary: unknown message kind %q from %s", msg.Kind, msg.WorkerID)
		}
	}
	if p.next < len(p.jobs) {
		p.result.Unassigned = append(p.result.Unassigned, p.jobs[p.next:]...)
	}
	return nil
}

func (p *Primary) startStatus() (*cron.Cron, error) {
	if p.opts.StatusSchedule == "-" {
		return nil, nil
	}
	c := cron.New()
	if _, err := c.AddFunc(p.opts.StatusSchedule, func() {
		logrus.Infof("%d Jobs Available", p.Available())
	}); err != nil {
		return nil, fmt.Errorf("status schedule %q: %w", p.opts.StatusSchedule, err)
	}
	c.Start()
	return c, nil
}
