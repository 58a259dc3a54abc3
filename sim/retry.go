package sim

// DefaultRetryAttempts is the attempt budget of a new Retry.
const DefaultRetryAttempts = 2

// Retry resubmits failed events to its inner stage.
//
// Attempts counts every inner invocation including the first. Resubmission is
// immediate and sequential. Retry owns no queue: a rejection by the inner
// stage's admission control is a failed attempt like any other.
type Retry struct {
	inner    Stage
	Attempts int

	invocations int
	exhausted   int
}

// NewRetry wraps inner with DefaultRetryAttempts.
func NewRetry(inner Stage) *Retry {
	return &Retry{inner: inner, Attempts: DefaultRetryAttempts}
}

// Invocations returns the total number of inner Accept calls made.
func (r *Retry) Invocations() int { return r.invocations }

// Exhausted returns how many events failed after using the whole budget.
func (r *Retry) Exhausted() int { return r.exhausted }

// Accept implements Stage.
func (r *Retry) Accept(ev *Event, done func(Outcome)) {
	r.attempt(ev, 1, done)
}

func (r *Retry) attempt(ev *Event, n int, done func(Outcome)) {
	r.invocations++
	r.inner.Accept(ev, func(out Outcome) {
		if out.OK() {
			done(out)
			return
		}
		if n >= max(r.Attempts, 1) {
			r.exhausted++
			done(out)
			return
		}
		ev.Retries++
		r.attempt(ev, n+1, done)
	})
}
