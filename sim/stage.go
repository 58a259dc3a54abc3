package sim

// Stage is anything that can take an Event and eventually report an Outcome.
// done is called exactly once, either synchronously (admission rejection)
// or later in virtual time.
type Stage interface {
	Accept(ev *Event, done func(Outcome))
}

// StageFunc adapts a function to the Stage interface.
type StageFunc func(ev *Event, done func(Outcome))

func (f StageFunc) Accept(ev *Event, done func(Outcome)) {
	f(ev, done)
}
