package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome_Err_WrapsSentinels(t *testing.T) {
	assert.NoError(t, Succeeded().Err())

	err := Rejected("build").Err()
	assert.ErrorIs(t, err, ErrAdmissionRejected)
	assert.NotErrorIs(t, err, ErrServiceFailure)
	assert.Contains(t, err.Error(), "build")

	err = Failed("database").Err()
	assert.ErrorIs(t, err, ErrServiceFailure)
	assert.Contains(t, err.Error(), "database")
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{Succeeded(), "success"},
		{Rejected("build"), "build:admission-rejected"},
		{Failed("database"), "database:service-failure"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.outcome.String())
	}
	assert.Equal(t, "FailureKind(9)", FailureKind(9).String())
}

func TestEvent_FirstVisit(t *testing.T) {
	// GIVEN an event that visited the database twice
	ev := NewEvent(1, 10)
	i := ev.enter("database", 10)
	ev.StageTimes[i].QueueTime = 4
	ev.enter("database", 20)

	// THEN lookups resolve to the first visit
	st, ok := ev.FirstVisit("database")
	assert.True(t, ok)
	assert.Equal(t, 10.0, st.Arrived)
	assert.Equal(t, 4.0, ev.QueueTimeAt("database"))

	// AND a stage never entered reports zero
	_, ok = ev.FirstVisit("client")
	assert.False(t, ok)
	assert.Equal(t, 0.0, ev.QueueTimeAt("client"))
	assert.True(t, ev.Succeeded())
}
