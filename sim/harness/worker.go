package harness

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/incident-sim/incident-sim/sim/incident"
)

// JobRunner executes one job. Each worker owns its own JobRunner, so an
// implementation need not be safe for concurrent use. RunJob should return
// soon after ctx is cancelled, at the latest once the current run finishes.
type JobRunner interface {
	RunJob(ctx context.Context, job Job, progress func(id, current, total int)) ([]incident.WorkItemResult, error)
}

// RunnerFactory creates the JobRunner of a new worker.
type RunnerFactory func() JobRunner

// IncidentRunners returns a factory of runners that simulate jobs with cfg.
func IncidentRunners(cfg incident.Config) RunnerFactory {
	return func() JobRunner {
		return &incidentRunner{runner: incident.NewRunner(cfg)}
	}
}

type incidentRunner struct {
	runner *incident.Runner
}

func (r *incidentRunner) RunJob(ctx context.Context, job Job, progress func(id, current, total int)) ([]incident.WorkItemResult, error) {
	return r.runner.RunJob(ctx, job.Model, job.Inputs(), job.OutputDir, progress)
}

// progressLogInterval throttles a worker's progress lines.
const progressLogInterval = 2 * time.Second

type worker struct {
	id     string
	runner JobRunner
	inbox  chan<- Message
	reply  chan Message
	logs   rate.Sometimes
}

func newWorker(runner JobRunner, inbox chan<- Message) *worker {
	return &worker{
		id:     uuid.NewString(),
		runner: runner,
		inbox:  inbox,
		reply:  make(chan Message, 1),
		logs:   rate.Sometimes{First: 1, Interval: progressLogInterval},
	}
}

// run pulls jobs until ctx is cancelled or a job panics.
func (w *worker) run(ctx context.Context) {
	var finished *JobResult
	for {
		if !w.send(ctx, Message{Kind: RequestTask, WorkerID: w.id, Finished: finished, reply: w.reply}) {
			return
		}
		var msg Message
		select {
		case <-ctx.Done():
			return
		case msg = <-w.reply:
		}
		if msg.Kind != AssignTask || msg.Job == nil {
			logrus.Warnf("[worker %s] unexpected %s message", w.id, msg.Kind)
			finished = nil
			continue
		}

		job := *msg.Job
		result, fault := w.execute(ctx, job)
		if fault != nil {
			logrus.Errorf("[worker %s] %v", w.id, fault)
			w.send(ctx, Message{Kind: WorkerFault, WorkerID: w.id, Job: &job, Fault: fault})
			return
		}
		finished = result
	}
}

// execute runs job and turns a panic into a FaultError.
func (w *worker) execute(ctx context.Context, job Job) (result *JobResult, fault *FaultError) {
	defer func() {
		if p := recover(); p != nil {
			fault = &FaultError{WorkerID: w.id, Job: job, Panic: p}
		}
	}()
	runs, err := w.runner.RunJob(ctx, job, func(id, current, total int) {
		w.logs.Do(func() {
			logrus.Infof("[worker %s] Simulation: %d/%d (model %s)", w.id[:8], current, total, job.Model)
		})
		w.send(ctx, Message{
			Kind:     ProgressReport,
			WorkerID: w.id,
			Progress: &Progress{RunID: id, Model: job.Model, Current: current, Total: total},
		})
	})
	return &JobResult{WorkerID: w.id, Job: job, Runs: runs, Err: err}, nil
}

func (w *worker) send(ctx context.Context, msg Message) bool {
	select {
	case <-ctx.Done():
		return false
	case w.inbox <- msg:
		return true
	}
}
