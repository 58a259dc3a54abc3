package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incident-sim/incident-sim/sim/incident"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

func matrixOf(n int) []incident.ParameterVector {
	m := make([]incident.ParameterVector, n)
	for i := range m {
		m[i] = incident.ParameterVector{ArrivalRate1: float64(100 + i), DatabaseLatencyBase: 30, DatabaseAvailability: 0.9995, ArrivalRate2: 200}
	}
	return m
}

func TestCreateJobs_ChunksEveryModel(t *testing.T) {
	// GIVEN 25 rows, two models and a chunk size of 10
	models := []incident.ModelName{incident.ModelOriginal, incident.ModelC}

	// WHEN jobs are created
	jobs := CreateJobs("/out", models, matrixOf(25), 10)

	// THEN each model gets chunks of 10, 10 and 5
	require.Len(t, jobs, 6)
	sizes := []int{}
	for _, j := range jobs {
		sizes = append(sizes, len(j.Work))
	}
	assert.Equal(t, []int{10, 10, 5, 10, 10, 5}, sizes)
	assert.Equal(t, incident.ModelOriginal, jobs[0].Model)
	assert.Equal(t, incident.ModelC, jobs[3].Model)
	assert.Equal(t, filepath.Join("/out", "C", "sim"), jobs[3].OutputDir)

	// AND ids are row indices, identical across models
	assert.Equal(t, 20, jobs[2].Work[0].ID)
	assert.Equal(t, 24, jobs[5].Work[4].ID)
	assert.Equal(t, 124.0, jobs[5].Work[4].Inputs.ArrivalRate1)
	assert.Equal(t, 50, CountWork(jobs))
}

func TestCreateJobs_DefaultChunkSize(t *testing.T) {
	jobs := CreateJobs("/out", []incident.ModelName{incident.ModelA}, matrixOf(11), 0)
	require.Len(t, jobs, 2)
	assert.Len(t, jobs[0].Work, DefaultChunkSize)
}

func TestCreateJobs_EmptyMatrix_NoJobs(t *testing.T) {
	assert.Empty(t, CreateJobs("/out", []incident.ModelName{incident.ModelA}, nil, 10))
}

func TestJob_Inputs_PreservesOrder(t *testing.T) {
	job := CreateJobs("/out", []incident.ModelName{incident.ModelB}, matrixOf(3), 10)[0]
	in := job.Inputs()
	require.Len(t, in, 3)
	for i, item := range in {
		assert.Equal(t, i, item.ID)
		assert.Equal(t, job.Work[i].Inputs, item.Params)
	}
}
