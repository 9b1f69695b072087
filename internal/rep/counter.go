package rep

import (
	"time"

	"github.com/ayusman/goldenreps/internal/pose"
)

// Outcome describes what one observed pose did to the session.
type Outcome struct {
	Signal    float64
	HasSignal bool
	Event     Event
	// Count is the rep total after this frame.
	Count int
	// Milestone is non-empty when this frame's rep hit a milestone count.
	Milestone string
}

// Counter runs the per-frame pipeline: signal extraction, detection and
// counting. It owns one DetectorState and one Stats and, like Stats, must be
// serialised by the caller.
type Counter struct {
	threshold float64
	gate      float64
	state     DetectorState
	stats     Stats
}

// NewCounter returns a Counter. Non-positive arguments fall back to
// DefaultThreshold and ConfidenceGate.
func NewCounter(threshold, gate float64) *Counter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if gate <= 0 {
		gate = ConfidenceGate
	}
	return &Counter{threshold: threshold, gate: gate}
}

// Start resets the detector and starts the stats clock. It must run before
// the first frame of a session.
func (c *Counter) Start(now time.Time) {
	c.state = NewDetectorState()
	c.stats.Start(now)
}

// Observe feeds one pose. Poses without a usable signal leave the detector
// state untouched.
func (c *Counter) Observe(p pose.Pose) Outcome {
	signal, ok := ExtractSignalGated(p, c.gate)
	if !ok {
		return Outcome{Count: c.stats.RepCount()}
	}
	return c.ObserveSignal(signal)
}

// ObserveSignal feeds one precomputed signal sample.
func (c *Counter) ObserveSignal(signal float64) Outcome {
	var event Event
	c.state, event = ProcessSignal(c.state, signal, c.threshold)

	out := Outcome{Signal: signal, HasSignal: true, Event: event, Count: c.stats.RepCount()}
	if event == EventRepCompleted {
		out.Count = c.stats.OnRepCompleted()
		if msg, ok := Milestone(out.Count); ok {
			out.Milestone = msg
		}
	}
	return out
}

// Tick recomputes the time-derived statistics.
func (c *Counter) Tick(now time.Time) Snapshot {
	return c.stats.Tick(now)
}

// Reset zeroes the count without touching the clock or the detector.
func (c *Counter) Reset() {
	c.stats.Reset()
}

// Stop proposes a new best against the stored one.
func (c *Counter) Stop(best int) (int, bool) {
	return c.stats.Stop(best)
}

// RepCount returns the current count.
func (c *Counter) RepCount() int {
	return c.stats.RepCount()
}

// StartTime returns when the current session started.
func (c *Counter) StartTime() time.Time {
	return c.stats.StartTime()
}

// State returns a copy of the detector state.
func (c *Counter) State() DetectorState {
	return c.state
}

// Threshold returns the phase-change threshold in use.
func (c *Counter) Threshold() float64 {
	return c.threshold
}
