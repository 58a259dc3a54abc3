// Package harness distributes a parameter sweep over a pool of worker
// goroutines. A primary partitions the parameter matrix into jobs; workers
// pull jobs one at a time, run every work item on their own simulation
// context and report progress back over channels.
package harness

import (
	"path/filepath"

	"github.com/incident-sim/incident-sim/sim/incident"
)

// DefaultChunkSize is the number of work items per job.
const DefaultChunkSize = 10

// WorkItem is one run: a parameter vector and the id it writes under.
type WorkItem struct {
	ID     int                      `json:"id" yaml:"id"`
	Inputs incident.ParameterVector `json:"inputs" yaml:"inputs"`
}

// Job is the unit a worker pulls: a batch of work items for one model.
type Job struct {
	OutputDir string             `json:"output_dir" yaml:"output_dir"`
	Model     incident.ModelName `json:"model" yaml:"model"`
	Work      []WorkItem         `json:"work" yaml:"work"`
}

// Inputs converts the job's items to the run driver's form.
func (j Job) Inputs() []incident.WorkItemInput {
	items := make([]incident.WorkItemInput, len(j.Work))
	for i, w := range j.Work {
		items[i] = incident.WorkItemInput{ID: w.ID, Params: w.Inputs}
	}
	return items
}

// ModelOutputDir is where runs of model are written under root.
func ModelOutputDir(root string, model incident.ModelName) string {
	return filepath.Join(root, string(model), "sim")
}

// CreateJobs partitions matrix into jobs of at most chunkSize items for every
// model. Work item ids are the matrix row indices, so the same row has the
// same id under every model. chunkSize <= 0 uses DefaultChunkSize.
func CreateJobs(outputDir string, models []incident.ModelName, matrix []incident.ParameterVector, chunkSize int) []Job {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	var jobs []Job
	for _, model := range models {
		dir := ModelOutputDir(outputDir, model)
		for start := 0; start < len(matrix); start += chunkSize {
			end := min(start+chunkSize, len(matrix))
			work := make([]WorkItem, 0, end-start)
			for id := start; id < end; id++ {
				work = append(work, WorkItem{ID: id, Inputs: matrix[id]})
			}
			jobs = append(jobs, Job{OutputDir: dir, Model: model, Work: work})
		}
	}
	return jobs
}

// CountWork returns the number of work items across jobs.
func CountWork(jobs []Job) int {
	n := 0
	for _, j := range jobs {
		n += len(j.Work)
	}
	return n
}
