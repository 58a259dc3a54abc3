package harness

import (
	"fmt"

	"github.com/incident-sim/incident-sim/sim/incident"
)

// MessageKind tags a message between the primary and a worker.
type MessageKind string

const (
	// RequestTask is sent by an idle worker. It carries the result of the
	// worker's previous job, if any.
	RequestTask MessageKind = "request_task"
	// AssignTask answers a request with the next job.
	AssignTask MessageKind = "assign_task"
	// ProgressReport is sent by a worker after every finished run.
	ProgressReport MessageKind = "progress_report"
	// WorkerFault is sent by a worker whose job panicked. The worker exits
	// after sending it and its job is lost.
	WorkerFault MessageKind = "worker_fault"
)

// Message is the single envelope on the primary's inbox and on each worker's
// reply channel. Only the fields relevant to Kind are set.
type Message struct {
	Kind     MessageKind
	WorkerID string

	Job      *Job        // AssignTask; WorkerFault (the lost job)
	Finished *JobResult  // RequestTask, when the worker just finished a job
	Progress *Progress   // ProgressReport
	Fault    *FaultError // WorkerFault

	reply chan Message // RequestTask: where the primary answers
}

// Progress reports one finished run inside a job.
type Progress struct {
	RunID   int
	Model   incident.ModelName
	Current int
	Total   int
}

// JobResult is what a worker hands back for a completed job.
type JobResult struct {
	WorkerID string
	Job      Job
	Runs     []incident.WorkItemResult
	Err      error // joined per-run errors; the job still counts as completed
}

// Failed returns the number of runs in the job that returned an error.
func (r *JobResult) Failed() int {
	n := 0
	for _, run := range r.Runs {
		if run.Err != nil {
			n++
		}
	}
	return n
}

// FaultError describes a worker crash.
type FaultError struct {
	WorkerID string
	Job      Job
	Panic    any
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("worker %s crashed on model %s job (%d items): %v", e.WorkerID, e.Job.Model, len(e.Job.Work), e.Panic)
}
