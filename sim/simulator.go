// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"
)

// timer is a callback scheduled at a point in virtual time.
// Daemon timers (statistics flushes) never keep a run alive on their own.
type timer struct {
	at     float64
	seq    uint64
	daemon bool
	fn     func()
}

// timerQueue implements heap.Interface with deterministic ordering:
// virtual time first, then work before daemons, then scheduling order.
// A daemon due at the same tick as work therefore observes that work.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type timerQueue []*timer

func (tq timerQueue) Len() int { return len(tq) }
func (tq timerQueue) Less(i, j int) bool {
	if tq[i].at != tq[j].at {
		return tq[i].at < tq[j].at
	}
	if tq[i].daemon != tq[j].daemon {
		return !tq[i].daemon
	}
	return tq[i].seq < tq[j].seq
}
func (tq timerQueue) Swap(i, j int) { tq[i], tq[j] = tq[j], tq[i] }

func (tq *timerQueue) Push(x any) {
	*tq = append(*tq, x.(*timer))
}

func (tq *timerQueue) Pop() any {
	old := *tq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*tq = old[0 : n-1]
	return item
}

// Simulator holds the virtual clock and the pending timers of one run.
// Time is measured in ticks; fractional ticks are allowed.
type Simulator struct {
	Clock   float64
	queue   timerQueue
	nextSeq uint64
	// number of scheduled non-daemon timers
	pending int
}

// NewSimulator returns a simulator with the clock at zero and nothing scheduled.
func NewSimulator() *Simulator {
	return &Simulator{queue: make(timerQueue, 0)}
}

// Now returns the current virtual time.
func (s *Simulator) Now() float64 {
	return s.Clock
}

// Pending returns the number of non-daemon timers still scheduled.
func (s *Simulator) Pending() int {
	return s.pending
}

// At schedules fn at absolute virtual time t. Times in the past run at the current time.
func (s *Simulator) At(t float64, fn func()) {
	s.schedule(t, false, fn)
}

// After schedules fn delay ticks from now. Negative delays are treated as zero.
func (s *Simulator) After(delay float64, fn func()) {
	if delay < 0 {
		delay = 0
	}
	s.schedule(s.Clock+delay, false, fn)
}

// Every runs fn each interval ticks for as long as other work is pending.
func (s *Simulator) Every(interval float64, fn func()) {
	if interval <= 0 {
		panic(fmt.Sprintf("Every: interval must be positive, got %v", interval))
	}
	var tick func()
	tick = func() {
		fn()
		s.schedule(s.Clock+interval, true, tick)
	}
	s.schedule(s.Clock+interval, true, tick)
}

func (s *Simulator) schedule(at float64, daemon bool, fn func()) {
	if at < s.Clock {
		at = s.Clock
	}
	s.nextSeq++
	if !daemon {
		s.pending++
	}
	heap.Push(&s.queue, &timer{at: at, seq: s.nextSeq, daemon: daemon, fn: fn})
}

// Run executes timers in order until no non-daemon timer remains.
// Daemon timers that fall due before the last piece of work still fire.
func (s *Simulator) Run() {
	for s.pending > 0 && len(s.queue) > 0 {
		t := heap.Pop(&s.queue).(*timer)
		if t.at < s.Clock {
			panic(fmt.Sprintf("Clock went backwards: %v < %v", t.at, s.Clock))
		}
		s.Clock = t.at
		if !t.daemon {
			s.pending--
		}
		t.fn()
	}
	logrus.Debugf("[tick %09.2f] Simulation drained", s.Clock)
}
