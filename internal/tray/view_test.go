package tray

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/goldenreps/internal/rep"
	"github.com/ayusman/goldenreps/internal/session"
)

func TestView_SessionLifecycle(t *testing.T) {
	var v view
	at := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	assert.Equal(t, "Start Session", v.toggleLabel())
	assert.Equal(t, "Status: Ready", v.statusLine())

	assert.True(t, v.apply(session.Event{Type: session.EventBest, Best: 12, At: at}))
	assert.Equal(t, "Best: 12", v.bestLine())

	assert.True(t, v.apply(session.Event{Type: session.EventPhase, Phase: session.PhaseInProgress, At: at}))
	assert.True(t, v.running)
	assert.Equal(t, "Stop Session", v.toggleLabel())
	assert.Equal(t, "Status: In Progress...", v.statusLine())

	assert.True(t, v.apply(session.Event{Type: session.EventRep, Count: 3, At: at}))
	assert.Equal(t, "💪 3", v.title())
	assert.False(t, v.apply(session.Event{Type: session.EventRep, Count: 3, At: at}), "same count is not a change")

	snap := rep.Snapshot{RepCount: 3, ElapsedSeconds: 75, Minutes: 1, Rate: 3}
	stats := session.Stats{Snapshot: snap, Duration: snap.Duration(), RateText: snap.RateString()}
	assert.True(t, v.apply(session.Event{Type: session.EventStats, Stats: &stats, At: at}))
	assert.Equal(t, "1:15 · 3.0 reps/min", v.statsLine())

	assert.True(t, v.apply(session.Event{Type: session.EventPhase, Phase: session.PhaseEnded, At: at}))
	assert.False(t, v.running)
	assert.Equal(t, "💪", v.title())
}

func TestView_MilestoneExpires(t *testing.T) {
	var v view
	at := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	v.apply(session.Event{Type: session.EventMilestone, Count: 10, Message: "🔥 Great start!", DisplayMs: 3000, At: at})
	assert.Equal(t, "🔥 Great start!", v.milestone)

	v.apply(session.Event{Type: session.EventRep, Count: 11, At: at.Add(time.Second)})
	assert.Equal(t, "🔥 Great start!", v.milestone, "still within the display window")

	v.apply(session.Event{Type: session.EventRep, Count: 12, At: at.Add(4 * time.Second)})
	assert.Empty(t, v.milestone)
}

func TestView_ResetClearsMilestone(t *testing.T) {
	var v view
	at := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

	v.apply(session.Event{Type: session.EventMilestone, Count: 20, Message: "💪 You're unstoppable!", DisplayMs: 3000, At: at})
	v.apply(session.Event{Type: session.EventMilestone, At: at})
	assert.Empty(t, v.milestone)
}
