package sim

// StageTime records one visit of an Event to a stage.
// Arrived <= Started <= Finished always holds for a completed visit.
type StageTime struct {
	Stage     string
	Arrived   float64
	Started   float64
	Finished  float64
	QueueTime float64 // Started - Arrived
	WorkTime  float64 // Finished - Started
	Done      bool
}

// Event is one unit of simulated work travelling down the stage chain.
type Event struct {
	ID         int64
	Created    float64 // virtual time the event was generated
	Resolved   float64 // virtual time the head stage reported its outcome
	StageTimes []StageTime
	Outcome    Outcome
	Retries    int // resubmissions performed by retry decorators
}

// NewEvent creates an event stamped with its creation time.
func NewEvent(id int64, now float64) *Event {
	return &Event{ID: id, Created: now}
}

// enter appends a visit record and returns its index.
// StageTimes may reallocate, so callers keep the index.
func (e *Event) enter(stage string, now float64) int {
	e.StageTimes = append(e.StageTimes, StageTime{Stage: stage, Arrived: now})
	return len(e.StageTimes) - 1
}

// FirstVisit returns the first visit record for stage.
func (e *Event) FirstVisit(stage string) (StageTime, bool) {
	for _, st := range e.StageTimes {
		if st.Stage == stage {
			return st, true
		}
	}
	return StageTime{}, false
}

// QueueTimeAt returns the queue time of the first visit to stage, or 0 if it never entered.
func (e *Event) QueueTimeAt(stage string) float64 {
	st, ok := e.FirstVisit(stage)
	if !ok {
		return 0
	}
	return st.QueueTime
}

// Succeeded reports whether the event resolved successfully.
func (e *Event) Succeeded() bool {
	return e.Outcome.OK()
}
