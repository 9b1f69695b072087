package tray

import (
	"fmt"
	"time"

	"github.com/ayusman/goldenreps/internal/session"
)

// view is the tray's copy of the session as told by events.
type view struct {
	running       bool
	phase         session.Phase
	reps          int
	best          int
	stats         session.Stats
	milestone     string
	milestoneTill time.Time
}

// apply folds ev into the view and reports whether anything visible changed.
func (v *view) apply(ev session.Event) bool {
	before := *v

	if v.milestone != "" && !v.milestoneTill.IsZero() && ev.At.After(v.milestoneTill) {
		v.milestone = ""
	}

	switch ev.Type {
	case session.EventPhase:
		v.phase = ev.Phase
		switch ev.Phase {
		case session.PhaseInProgress:
			v.running = true
		case session.PhaseEnded:
			v.running = false
		}
	case session.EventRep:
		v.reps = ev.Count
	case session.EventBest:
		v.best = ev.Best
	case session.EventStats:
		if ev.Stats != nil {
			v.stats = *ev.Stats
			v.reps = ev.Stats.RepCount
		}
	case session.EventMilestone:
		v.milestone = ev.Message
		v.milestoneTill = time.Time{}
		if ev.Message != "" {
			v.milestoneTill = ev.At.Add(time.Duration(ev.DisplayMs) * time.Millisecond)
		}
	}

	return *v != before
}

func (v *view) title() string {
	if !v.running {
		return "💪"
	}
	return fmt.Sprintf("💪 %d", v.reps)
}

func (v *view) toggleLabel() string {
	if v.running {
		return "Stop Session"
	}
	return "Start Session"
}

func (v *view) statusLine() string {
	return "Status: " + v.phase.Label()
}

func (v *view) statsLine() string {
	return fmt.Sprintf("%s · %s reps/min", v.stats.Duration, v.stats.RateText)
}

func (v *view) bestLine() string {
	return fmt.Sprintf("Best: %d", v.best)
}
