package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// scripted returns each outcome in turn, then repeats the last one.
func scripted(calls *int, outs ...Outcome) Stage {
	return StageFunc(func(ev *Event, done func(Outcome)) {
		i := min(*calls, len(outs)-1)
		*calls++
		done(outs[i])
	})
}

func TestRetry_AlwaysFailing_InvokesExactlyAttempts(t *testing.T) {
	// GIVEN an inner stage that always fails and a budget of 3
	calls := 0
	r := NewRetry(scripted(&calls, Failed("db")))
	r.Attempts = 3
	ev := NewEvent(1, 0)

	// WHEN an event is accepted
	var got Outcome
	r.Accept(ev, func(out Outcome) { got = out })

	// THEN the inner stage ran exactly 3 times and the last failure propagates
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, r.Invocations())
	assert.Equal(t, 1, r.Exhausted())
	assert.Equal(t, 2, ev.Retries)
	assert.True(t, errors.Is(got.Err(), ErrServiceFailure))
}

func TestRetry_SucceedsOnSecondAttempt(t *testing.T) {
	calls := 0
	r := NewRetry(scripted(&calls, Failed("db"), Succeeded()))
	ev := NewEvent(1, 0)

	var got Outcome
	r.Accept(ev, func(out Outcome) { got = out })

	assert.True(t, got.OK())
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, r.Exhausted())
	assert.Equal(t, 1, ev.Retries)
}

func TestRetry_Success_NoResubmission(t *testing.T) {
	calls := 0
	r := NewRetry(scripted(&calls, Succeeded()))
	r.Accept(NewEvent(1, 0), func(Outcome) {})
	assert.Equal(t, 1, calls)
}

func TestRetry_InnerRejection_CountsAsAttempt(t *testing.T) {
	// GIVEN a retry in front of a queue whose only worker is busy and which
	// has no waiting slots
	s := NewSimulator()
	q := NewServiceQueue(s, "db", 0, 1)
	q.Submit(NewEvent(0, 0), fixedWork(s, 100, nil), func(Outcome) {})
	inner := StageFunc(func(ev *Event, done func(Outcome)) {
		q.Submit(ev, fixedWork(s, 1, nil), done)
	})
	r := NewRetry(inner)
	ev := NewEvent(1, 0)

	// WHEN an event is accepted
	var got Outcome
	r.Accept(ev, func(out Outcome) { got = out })

	// THEN both attempts were rejected synchronously and the rejection propagates
	assert.Equal(t, 2, r.Invocations())
	assert.Equal(t, 2, q.Rejected())
	assert.True(t, errors.Is(got.Err(), ErrAdmissionRejected))
}

func TestRetry_AsynchronousInner_ResubmitsAfterFailure(t *testing.T) {
	s := NewSimulator()
	calls := 0
	inner := StageFunc(func(ev *Event, done func(Outcome)) {
		calls++
		s.After(5, func() { done(Failed("db")) })
	})
	r := NewRetry(inner)
	var resolvedAt float64
	r.Accept(NewEvent(1, 0), func(Outcome) { resolvedAt = s.Now() })

	s.Run()

	assert.Equal(t, 2, calls)
	assert.Equal(t, 10.0, resolvedAt)
}

func TestRetry_NonPositiveAttempts_TreatedAsOne(t *testing.T) {
	calls := 0
	r := NewRetry(scripted(&calls, Failed("db")))
	r.Attempts = 0
	r.Accept(NewEvent(1, 0), func(Outcome) {})
	assert.Equal(t, 1, calls)
}
