package harness

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/incident-sim/incident-sim/sim/incident"
)

// SweepOptions are the inputs of a full parameter sweep.
type SweepOptions struct {
	ScenarioPath string
	MatrixPath   string
	OutputRoot   string
	ChunkSize    int
	Config       incident.Config
	Primary      Options // NewRunner defaults to IncidentRunners(Config)
}

// Plan is a validated sweep, ready to run.
type Plan struct {
	Scenario  *Scenario
	Models    []incident.ModelName
	Matrix    []incident.ParameterVector
	OutputDir string
	Jobs      []Job
}

// Prepare loads and validates every input and lays out the output tree.
// Nothing is simulated, and configuration errors surface here.
func Prepare(opts SweepOptions) (*Plan, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	scenario, err := LoadScenario(opts.ScenarioPath)
	if err != nil {
		return nil, err
	}
	models, err := scenario.ModelNames()
	if err != nil {
		return nil, err
	}
	matrix, err := LoadParameterMatrix(opts.MatrixPath)
	if err != nil {
		return nil, err
	}
	dir, err := PrepareOutput(opts.OutputRoot, scenario.Name, models, time.Now(), opts.ScenarioPath, opts.MatrixPath)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Scenario:  scenario,
		Models:    models,
		Matrix:    matrix,
		OutputDir: dir,
		Jobs:      CreateJobs(dir, models, matrix, opts.ChunkSize),
	}, nil
}

// Sweep prepares and runs a sweep.
func Sweep(ctx context.Context, opts SweepOptions) (*Plan, *Result, error) {
	plan, err := Prepare(opts)
	if err != nil {
		return nil, nil, err
	}
	logrus.Infof("Scenario %q: models %v, %d parameter rows -> %s",
		plan.Scenario.Name, plan.Models, len(plan.Matrix), plan.OutputDir)

	popts := opts.Primary
	if popts.NewRunner == nil {
		popts.NewRunner = IncidentRunners(opts.Config)
	}
	result, err := NewPrimary(popts).Run(ctx, plan.Jobs)
	return plan, result, err
}
