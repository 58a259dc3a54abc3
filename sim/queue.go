// Implements the ServiceQueue, the admission-controlled FIFO and worker pool
// shared by every queued stage.

package sim

import (
	"fmt"
	"strings"
)

// Unbounded disables the capacity check of a ServiceQueue.
const Unbounded = -1

// WorkFunc processes one admitted event and reports its outcome through finish.
// finish must be called exactly once, now or at a later virtual time.
type WorkFunc func(ev *Event, finish func(Outcome))

type queuedEvent struct {
	ev    *Event
	visit int
	work  WorkFunc
	done  func(Outcome)
}

// ServiceQueue bounds how many events a stage processes at once (workers)
// and how many more may wait for a worker (capacity).
//
// An event that finds a free worker starts immediately and never occupies a
// queue slot. Waiting events are served strictly in arrival order.
type ServiceQueue struct {
	sim      *Simulator
	stage    string
	capacity int
	workers  int

	waiting []*queuedEvent
	busy    int

	maxBusy    int
	maxWaiting int
	rejected   int
	// QueueTime and WorkTime accumulate over every visit that started / finished.
	QueueTime float64
	WorkTime  float64
}

// NewServiceQueue creates a queue for stage. capacity may be Unbounded.
func NewServiceQueue(s *Simulator, stage string, capacity, workers int) *ServiceQueue {
	if workers < 1 {
		panic(fmt.Sprintf("NewServiceQueue(%s): workers must be >= 1, got %d", stage, workers))
	}
	if capacity < Unbounded {
		panic(fmt.Sprintf("NewServiceQueue(%s): invalid capacity %d", stage, capacity))
	}
	return &ServiceQueue{sim: s, stage: stage, capacity: capacity, workers: workers}
}

// SetCapacity changes the number of waiting slots.
func (q *ServiceQueue) SetCapacity(capacity int) {
	if capacity < Unbounded {
		panic(fmt.Sprintf("SetCapacity(%s): invalid capacity %d", q.stage, capacity))
	}
	q.capacity = capacity
}

// SetWorkers changes the worker limit. Raising it starts waiting events at once.
func (q *ServiceQueue) SetWorkers(workers int) {
	if workers < 1 {
		panic(fmt.Sprintf("SetWorkers(%s): workers must be >= 1, got %d", q.stage, workers))
	}
	q.workers = workers
	q.dispatch()
}

func (q *ServiceQueue) Stage() string    { return q.stage }
func (q *ServiceQueue) Capacity() int    { return q.capacity }
func (q *ServiceQueue) Workers() int     { return q.workers }
func (q *ServiceQueue) Len() int         { return len(q.waiting) }
func (q *ServiceQueue) InFlight() int    { return q.busy }
func (q *ServiceQueue) MaxInFlight() int { return q.maxBusy }
func (q *ServiceQueue) MaxLen() int      { return q.maxWaiting }
func (q *ServiceQueue) Rejected() int    { return q.rejected }

// Full reports whether an event submitted now would be rejected.
func (q *ServiceQueue) Full() bool {
	if q.busy < q.workers {
		return false
	}
	return q.capacity != Unbounded && len(q.waiting) >= q.capacity
}

// Submit admits ev or rejects it synchronously with AdmissionRejected.
// done receives the outcome produced by work.
func (q *ServiceQueue) Submit(ev *Event, work WorkFunc, done func(Outcome)) {
	if q.Full() {
		q.rejected++
		done(Rejected(q.stage))
		return
	}
	item := &queuedEvent{ev: ev, visit: ev.enter(q.stage, q.sim.Now()), work: work, done: done}
	if q.busy < q.workers {
		q.busy++
		q.trackBusy()
		q.begin(item)
		return
	}
	q.waiting = append(q.waiting, item)
	if len(q.waiting) > q.maxWaiting {
		q.maxWaiting = len(q.waiting)
	}
}

// begin runs work for an item whose worker slot is already reserved.
func (q *ServiceQueue) begin(item *queuedEvent) {
	now := q.sim.Now()
	st := &item.ev.StageTimes[item.visit]
	st.Started = now
	st.QueueTime = now - st.Arrived
	q.QueueTime += st.QueueTime

	item.work(item.ev, func(out Outcome) {
		end := q.sim.Now()
		st := &item.ev.StageTimes[item.visit]
		st.Finished = end
		st.WorkTime = end - st.Started
		st.Done = true
		q.WorkTime += st.WorkTime
		q.busy--
		q.dispatch()
		item.done(out)
	})
}

// dispatch reserves free workers for waiting events and starts them on a
// zero-delay timer, which keeps FIFO order and bounds call depth.
func (q *ServiceQueue) dispatch() {
	for q.busy < q.workers && len(q.waiting) > 0 {
		next := q.waiting[0]
		q.waiting[0] = nil
		q.waiting = q.waiting[1:]
		q.busy++
		q.trackBusy()
		q.sim.After(0, func() { q.begin(next) })
	}
}

func (q *ServiceQueue) trackBusy() {
	if q.busy > q.maxBusy {
		q.maxBusy = q.busy
	}
}

func (q *ServiceQueue) String() string {
	var sb strings.Builder
	capacity := "inf"
	if q.capacity != Unbounded {
		capacity = fmt.Sprint(q.capacity)
	}
	fmt.Fprintf(&sb, "%s[busy=%d/%d waiting=%d/%s]", q.stage, q.busy, q.workers, len(q.waiting), capacity)
	return sb.String()
}
