// Tracks per-window statistics recorded by stages during a run.

package sim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultSampleDuration is the statistics window length in ticks.
const DefaultSampleDuration = 1000.0

// StatWindow accumulates named metrics for one run.
//
// Three kinds of metric live side by side:
//   - series: one value appended per window by a flush hook (Record)
//   - counters: running sums (Add)
//   - maxima: running maximum across the run (Max)
//
// Flush hooks run in registration order every Interval ticks.
type StatWindow struct {
	Interval float64

	series   map[string][]float64
	events   map[string][][]*Event
	counters map[string]float64
	maxima   map[string]float64
	hooks    []func()

	flushes   int
	lastFlush float64
}

// NewStatWindow creates an empty recorder flushing every interval ticks.
func NewStatWindow(interval float64) *StatWindow {
	w := &StatWindow{Interval: interval}
	w.Reset()
	return w
}

// Reset drops every metric and every flush hook.
func (w *StatWindow) Reset() {
	w.series = make(map[string][]float64)
	w.events = make(map[string][][]*Event)
	w.counters = make(map[string]float64)
	w.maxima = make(map[string]float64)
	w.hooks = nil
	w.flushes = 0
	w.lastFlush = 0
}

// OnFlush registers a hook that records and clears one stage's window state.
func (w *StatWindow) OnFlush(hook func()) {
	w.hooks = append(w.hooks, hook)
}

// Flush closes the current window at virtual time now.
func (w *StatWindow) Flush(now float64) {
	for _, hook := range w.hooks {
		hook()
	}
	w.flushes++
	w.lastFlush = now
}

// Flushes returns the number of windows closed so far.
func (w *StatWindow) Flushes() int { return w.flushes }

// LastFlush returns the virtual time of the most recent flush.
func (w *StatWindow) LastFlush() float64 { return w.lastFlush }

// Record appends one window value to the named series.
func (w *StatWindow) Record(name string, value float64) {
	w.series[name] = append(w.series[name], value)
}

// RecordEvents appends the events seen during one window.
func (w *StatWindow) RecordEvents(name string, events []*Event) {
	w.events[name] = append(w.events[name], events)
}

// Series returns a copy of the named series.
func (w *StatWindow) Series(name string) []float64 {
	s := w.series[name]
	out := make([]float64, len(s))
	copy(out, s)
	return out
}

// EventWindows returns the per-window event lists recorded under name.
func (w *StatWindow) EventWindows(name string) [][]*Event {
	return w.events[name]
}

// Add increments a running counter.
func (w *StatWindow) Add(name string, delta float64) {
	w.counters[name] += delta
}

// Max raises a running maximum. The first observation always sticks.
func (w *StatWindow) Max(name string, value float64) {
	if cur, ok := w.maxima[name]; !ok || value > cur {
		w.maxima[name] = value
	}
}

// Get returns a counter or maximum by name; counters win on a name clash.
func (w *StatWindow) Get(name string) float64 {
	if v, ok := w.counters[name]; ok {
		return v
	}
	if v, ok := w.maxima[name]; ok {
		return v
	}
	return 0
}

// SeriesMax returns the largest value in a series, or NaN for an empty one.
func (w *StatWindow) SeriesMax(name string) float64 {
	s := w.series[name]
	if len(s) == 0 {
		return math.NaN()
	}
	return floats.Max(s)
}

// SeriesMean returns the mean of a series, ignoring NaN windows.
func (w *StatWindow) SeriesMean(name string) float64 {
	vals := make([]float64, 0, len(w.series[name]))
	for _, v := range w.series[name] {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	return Mean(vals)
}

// Names returns the sorted names of every series.
func (w *StatWindow) Names() []string {
	names := make([]string, 0, len(w.series))
	for name := range w.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mean returns the arithmetic mean, or NaN for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}
