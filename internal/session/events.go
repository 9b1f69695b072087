package session

import (
	"sync"
	"time"

	"github.com/ayusman/goldenreps/internal/pose"
	"github.com/ayusman/goldenreps/internal/rep"
)

// Phase is the status line shown to the user.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseInProgress Phase = "in-progress"
	PhaseDown       Phase = "down"
	PhaseUp         Phase = "up"
	PhaseAligning   Phase = "aligning"
	PhaseDetecting  Phase = "detecting"
	PhaseReset      Phase = "reset"
	PhaseEnded      Phase = "ended"
)

// Label returns the human readable status text.
func (p Phase) Label() string {
	switch p {
	case PhaseInProgress:
		return "In Progress..."
	case PhaseDown:
		return "Down"
	case PhaseUp:
		return "Up"
	case PhaseAligning:
		return "Align body"
	case PhaseDetecting:
		return "Detecting..."
	case PhaseReset:
		return "Reset"
	case PhaseEnded:
		return "Session Ended"
	default:
		return "Ready"
	}
}

// EventType names the kind of display update.
type EventType string

const (
	EventPhase     EventType = "phase"
	EventRep       EventType = "rep"
	EventMilestone EventType = "milestone"
	EventStats     EventType = "stats"
	EventBest      EventType = "best"
	EventPose      EventType = "pose"
)

// Stats is a stats snapshot together with its display strings.
type Stats struct {
	rep.Snapshot
	Duration string `json:"duration"`
	RateText string `json:"rate_text"`
}

func newStats(s rep.Snapshot) Stats {
	return Stats{Snapshot: s, Duration: s.Duration(), RateText: s.RateString()}
}

// Event is one update pushed to displays.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`

	Phase      Phase      `json:"phase,omitempty"`
	PhaseLabel string     `json:"phase_label,omitempty"`
	Count      int        `json:"count"`
	Message    string     `json:"message,omitempty"`
	DisplayMs  int64      `json:"display_ms,omitempty"`
	Stats      *Stats     `json:"stats,omitempty"`
	Best       int        `json:"best,omitempty"`
	Pose       *pose.Pose `json:"pose,omitempty"`
}

// Display receives session events. Publish must not block.
type Display interface {
	Publish(Event)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(Event)

func (f DisplayFunc) Publish(e Event) { f(e) }

// Recorder is a Display that keeps every event. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t EventType) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
