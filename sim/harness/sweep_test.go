package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incident-sim/incident-sim/sim/incident"
)

func tinyConfig() incident.Config {
	cfg := incident.DefaultConfig()
	cfg.PhaseSwitch = 1000
	cfg.PhaseEnd = 2000
	cfg.ExtraEvents = 100
	return cfg
}

func TestSweep_WritesEveryRunAndMatchesSingleRunner(t *testing.T) {
	// GIVEN a two-model scenario over three rows
	in := t.TempDir()
	scenario := writeFile(t, in, "simulation.json", `{"scenario": "tiny", "models": ["O", "C"]}`)
	params := writeFile(t, in, "parameters.txt", "400 30 0.9995 600\n500 25 0.99 800\n300 40 0.98 500\n")
	root := t.TempDir()

	// WHEN it is swept by two workers in chunks of two
	plan, result, err := Sweep(context.Background(), SweepOptions{
		ScenarioPath: scenario,
		MatrixPath:   params,
		OutputRoot:   root,
		ChunkSize:    2,
		Config:       tinyConfig(),
		Primary:      Options{Workers: 2, StatusSchedule: "-"},
	})

	// THEN all six runs completed and wrote their CSV
	require.NoError(t, err)
	require.NoError(t, result.Err())
	assert.Len(t, plan.Jobs, 4)
	assert.Equal(t, 6, result.Runs())
	for _, model := range []string{"O", "C"} {
		for id := 0; id < 3; id++ {
			assert.FileExists(t, filepath.Join(plan.OutputDir, model, "sim", incident.OutputFileName(incident.ModelName(model), id)))
		}
	}
	assert.FileExists(t, filepath.Join(plan.OutputDir, "simulation.json"))
	assert.FileExists(t, filepath.Join(plan.OutputDir, "parameters.txt"))

	// AND a run's output is identical to a standalone run of the same row
	dir := t.TempDir()
	_, err = incident.NewRunner(tinyConfig()).Run(incident.ModelOriginal, plan.Matrix[1], 1, dir)
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(dir, "O-1-out.csv"))
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(plan.OutputDir, "O", "sim", "O-1-out.csv"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestPrepare_InvalidInputs_FailBeforeAnyOutput(t *testing.T) {
	in := t.TempDir()
	good := writeFile(t, in, "simulation.json", `{"scenario": "s", "models": ["O"]}`)
	bad := writeFile(t, in, "bad.json", `{"scenario": "s", "models": ["Z"]}`)
	params := writeFile(t, in, "parameters.txt", "400 30 0.9995 600\n")
	badParams := writeFile(t, in, "bad.txt", "400 30\n")
	root := t.TempDir()

	tests := []SweepOptions{
		{ScenarioPath: bad, MatrixPath: params, OutputRoot: root, Config: tinyConfig()},
		{ScenarioPath: good, MatrixPath: badParams, OutputRoot: root, Config: tinyConfig()},
		{ScenarioPath: good, MatrixPath: params, OutputRoot: root, Config: incident.Config{}},
	}
	for i, opts := range tests {
		_, err := Prepare(opts)
		assert.Error(t, err, "case %d", i)
	}
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
