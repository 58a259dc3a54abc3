package incident

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/incident-sim/incident-sim/sim"
	"github.com/incident-sim/incident-sim/sim/workload"
)

// Summary condenses one run. Queue times are measured at the build service.
type Summary struct {
	Model ModelName
	ID    int

	Events    int
	Succeeded int
	Failed    int
	Rejected  int // events whose terminal outcome was an admission rejection

	MeanQueueTime        float64
	MeanQueueTimeSuccess float64
	MeanQueueTimeFailed  float64
	// Split by arrival before / after the phase-2 rate switch; only events
	// admitted by the build service count.
	MeanQueueTimeBeforeSwitch float64
	MeanQueueTimeAfterSwitch  float64

	// Averages of the per-window client series; empty windows are skipped.
	MeanClientLatency      float64
	MeanClientAvailability float64

	Throughput      float64 // events per tick over the whole run
	RecoveryTime    float64 // virtual time at which the run drained
	MaxQueueSize    float64
	QueueRejections float64
	DatabasePeak    int
	Windows         int

	OutputFile string
}

// Runner owns one simulation context and executes runs on it sequentially.
// A Runner must not be shared between goroutines.
type Runner struct {
	Config Config
	ctx    *sim.Context
	// Interceptor, when set, is installed on every model's Client.
	Interceptor Interceptor
}

// NewRunner creates a runner with its own context derived from cfg.
func NewRunner(cfg Config) *Runner {
	return &Runner{Config: cfg, ctx: sim.NewContext(cfg.Seed, cfg.SampleDuration)}
}

// Context exposes the runner's simulation context.
func (r *Runner) Context() *sim.Context { return r.ctx }

// OutputFileName returns the file a run writes: <model>-<id>-out.csv.
func OutputFileName(model ModelName, id int) string {
	return fmt.Sprintf("%s-%d-out.csv", model, id)
}

// Run executes one (model, parameters, id) triple and writes its time series
// into outDir. An empty outDir skips the file. Configuration errors are
// returned before any simulated work starts.
func (r *Runner) Run(model ModelName, params ParameterVector, id int, outDir string) (*Summary, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}
	sampler, err := workload.NewArrivalSampler(r.Config.Arrival)
	if err != nil {
		return nil, &ConfigurationError{Field: "arrival", Value: r.Config.Arrival, Reason: err.Error()}
	}

	r.ctx.Reset()
	var opts []ModelOption
	if r.Interceptor != nil {
		opts = append(opts, WithInterceptor(r.Interceptor))
	}
	m, err := BuildModel(r.ctx, r.Config, model, opts...)
	if err != nil {
		return nil, err
	}
	gen := r.applyScenario(m, sampler, params)

	budget := r.Config.EventBudget(params)
	logrus.Debugf("run %s-%d: %d events, params=%v", model, id, budget, params.Values())
	gen.Drive(m.Client, budget)
	r.ctx.Drain()

	events := gen.Events()
	if unresolved := len(events) - gen.Resolved(); unresolved != 0 {
		return nil, fmt.Errorf("run %s-%d drained with %d unresolved events", model, id, unresolved)
	}

	summary := r.summarize(m, events)
	summary.ID = id
	if outDir != "" {
		summary.OutputFile = filepath.Join(outDir, OutputFileName(model, id))
		if err := WriteTimeSeries(summary.OutputFile, r.ctx.Stats); err != nil {
			return summary, err
		}
	}
	logrus.WithFields(logrus.Fields{
		"model":      model,
		"id":         id,
		"events":     summary.Events,
		"failed":     summary.Failed,
		"queue_time": summary.MeanQueueTime,
		"drained_at": summary.RecoveryTime,
	}).Debug("run complete")
	return summary, nil
}

// applyScenario sets the database knobs and the two-phase arrival rate.
func (r *Runner) applyScenario(m *Model, sampler workload.ArrivalSampler, p ParameterVector) *workload.Generator {
	m.Database.LatencyBase = p.DatabaseLatencyBase
	m.Database.Availability = p.DatabaseAvailability
	gen := workload.NewGenerator(r.ctx, sampler, p.ArrivalRate1)
	gen.SetRateAt(r.Config.PhaseSwitch, p.ArrivalRate2)
	return gen
}

func (r *Runner) summarize(m *Model, events []*sim.Event) *Summary {
	stats := r.ctx.Stats
	s := &Summary{Model: m.Name, Events: len(events)}

	var okQueue, failedQueue []float64
	var before, after []float64
	for _, ev := range events {
		q := ev.QueueTimeAt(BuildServiceStage)
		if ev.Succeeded() {
			s.Succeeded++
			okQueue = append(okQueue, q)
		} else {
			s.Failed++
			failedQueue = append(failedQueue, q)
			if ev.Outcome.Kind == sim.AdmissionRejected {
				s.Rejected++
			}
		}
		if _, admitted := ev.FirstVisit(BuildServiceStage); admitted {
			if ev.Created < r.Config.PhaseSwitch {
				before = append(before, q)
			} else {
				after = append(after, q)
			}
		}
	}

	now := r.ctx.Now()
	if len(events) > 0 {
		s.MeanQueueTime = m.Service.Queue().QueueTime / float64(len(events))
	}
	s.MeanQueueTimeSuccess = sim.Mean(okQueue)
	s.MeanQueueTimeFailed = sim.Mean(failedQueue)
	s.MeanQueueTimeBeforeSwitch = sim.Mean(before)
	s.MeanQueueTimeAfterSwitch = sim.Mean(after)
	if now > 0 {
		s.Throughput = float64(len(events)) / now
	}
	s.RecoveryTime = now
	s.MeanClientLatency = stats.SeriesMean(StatClientMeanLatency)
	s.MeanClientAvailability = stats.SeriesMean(StatClientMeanAvail)

	stats.Max(StatMeanTimeInQueue, s.MeanQueueTime)
	stats.Max(StatMeanTimeInQueueOK, s.MeanQueueTimeSuccess)
	stats.Max(StatMeanTimeInQueueFailed, s.MeanQueueTimeFailed)
	stats.Max(StatRunThroughput, s.Throughput)
	stats.Max(StatRecoveryTime, s.RecoveryTime)

	s.MaxQueueSize = stats.Get(StatServiceMaxQueueSize)
	s.QueueRejections = stats.Get(StatServiceRejected)
	s.DatabasePeak = m.Database.MaxConcurrent()
	s.Windows = stats.Flushes()
	return s
}

// WorkItemResult pairs a work item id with the outcome of its run.
type WorkItemResult struct {
	ID      int
	Summary *Summary
	Err     error
}

// RunJob runs every (id, params) item for model in order on this runner,
// writing into outDir. progress, if non-nil, is called after each run with
// the item id and 1-based position. Failed runs do not stop the job; their
// errors are joined into the returned error. Cancelling ctx stops the job
// before its next item; the results so far are returned with ctx's error.
func (r *Runner) RunJob(ctx context.Context, model ModelName, items []WorkItemInput, outDir string, progress func(id, current, total int)) ([]WorkItemResult, error) {
	results := make([]WorkItemResult, 0, len(items))
	var errs []error
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			logrus.Debugf("job %s stopped after %d/%d runs: %v", model, i, len(items), err)
			errs = append(errs, err)
			break
		}
		logrus.Debugf("Simulation: %d/%d %v", i+1, len(items), item.Params.Values())
		summary, err := r.Run(model, item.Params, item.ID, outDir)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s-%d: %w", model, item.ID, err))
		}
		results = append(results, WorkItemResult{ID: item.ID, Summary: summary, Err: err})
		if progress != nil {
			progress(item.ID, i+1, len(items))
		}
	}
	return results, errors.Join(errs...)
}

// WorkItemInput is one row of a job as the run driver sees it.
type WorkItemInput struct {
	ID     int
	Params ParameterVector
}
