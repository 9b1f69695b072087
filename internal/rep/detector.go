// Package rep implements push-up repetition detection and session statistics.
//
// The detector is a pure function over an explicit DetectorState: callers own
// the state and thread it through successive frames. A rep is one lowered
// phase (signal rising by more than the threshold, since image Y grows
// downward) followed by a raised phase (signal falling by more than the
// threshold). Movements inside [-threshold, threshold] between consecutive
// frames are ignored.
package rep

import "math"

// DefaultThreshold is the per-frame signal change, in pixels, needed to
// register a phase change.
const DefaultThreshold = 25.0

// Event is the outcome of processing one signal sample.
type Event string

const (
	// EventNone means no phase transition happened.
	EventNone Event = ""
	// EventDown marks entry into the lowered phase. It is a status change, not a count.
	EventDown Event = "down"
	// EventRepCompleted marks a lowered-to-raised transition; the caller counts it.
	EventRepCompleted Event = "rep-completed"
)

// DetectorState is the mutable state carried between frames.
//
// RepInProgress is set with Lowered on the first down transition and never
// cleared afterwards, so after the first rep only Lowered gates counting.
type DetectorState struct {
	LastSignal    float64 `json:"last_signal"`
	HasLast       bool    `json:"has_last"`
	Lowered       bool    `json:"lowered"`
	RepInProgress bool    `json:"rep_in_progress"`
}

// NewDetectorState returns the state at session start.
func NewDetectorState() DetectorState {
	return DetectorState{}
}

// ProcessSignal advances the detector by one sample and reports the
// resulting event. The first sample after a reset only calibrates.
// Non-finite samples leave the state untouched.
func ProcessSignal(state DetectorState, signal, threshold float64) (DetectorState, Event) {
	if math.IsNaN(signal) || math.IsInf(signal, 0) {
		return state, EventNone
	}

	if !state.HasLast {
		state.LastSignal = signal
		state.HasLast = true
		return state, EventNone
	}

	delta := signal - state.LastSignal
	event := EventNone

	switch {
	case delta > threshold:
		if !state.Lowered {
			state.Lowered = true
			state.RepInProgress = true
			event = EventDown
		}
	case delta < -threshold:
		if state.Lowered && state.RepInProgress {
			state.Lowered = false
			event = EventRepCompleted
		}
	}

	state.LastSignal = signal
	return state, event
}
