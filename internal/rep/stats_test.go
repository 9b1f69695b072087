package rep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var sessionStart = time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC)

func TestStats_TickNinetySeconds(t *testing.T) {
	var s Stats
	s.Start(sessionStart)
	s.OnRepCompleted()

	snap := s.Tick(sessionStart.Add(90 * time.Second))

	assert.Equal(t, 90, snap.ElapsedSeconds)
	assert.Equal(t, 1, snap.Minutes)
	assert.InDelta(t, 1.0, snap.Rate, 1e-9)
	assert.Equal(t, "1:30", snap.Duration())
	assert.Equal(t, "1.0", snap.RateString())
}

func TestStats_TickRate(t *testing.T) {
	tests := []struct {
		name        string
		reps        int
		elapsed     time.Duration
		wantElapsed int
		wantMinutes int
		wantRate    float64
	}{
		{"session start", 0, 0, 0, 0, 0},
		{"reps before first whole second", 3, 900 * time.Millisecond, 0, 0, 0},
		{"fractional minute", 5, 30 * time.Second, 30, 0, 10},
		{"whole minutes floor", 10, 119 * time.Second, 119, 1, 10},
		{"two minutes", 30, 2*time.Minute + 5*time.Second, 125, 2, 15},
		{"clock went backwards", 2, -5 * time.Second, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Stats
			s.Start(sessionStart)
			for i := 0; i < tt.reps; i++ {
				s.OnRepCompleted()
			}

			snap := s.Tick(sessionStart.Add(tt.elapsed))
			assert.Equal(t, tt.reps, snap.RepCount)
			assert.Equal(t, tt.wantElapsed, snap.ElapsedSeconds)
			assert.Equal(t, tt.wantMinutes, snap.Minutes)
			assert.InDelta(t, tt.wantRate, snap.Rate, 1e-9)
		})
	}
}

func TestStats_TickIsRecomputedNotAccumulated(t *testing.T) {
	var s Stats
	s.Start(sessionStart)

	// Irregular and repeated ticks land on the same answer.
	s.Tick(sessionStart.Add(300 * time.Millisecond))
	s.Tick(sessionStart.Add(2700 * time.Millisecond))
	s.Tick(sessionStart.Add(45 * time.Second))
	snap := s.Tick(sessionStart.Add(10 * time.Second))

	assert.Equal(t, 10, snap.ElapsedSeconds)
}

func TestStats_Stop(t *testing.T) {
	tests := []struct {
		name     string
		reps     int
		best     int
		wantBest int
		improved bool
	}{
		{"beats stored best", 12, 10, 12, true},
		{"below stored best", 5, 10, 10, false},
		{"ties stored best", 10, 10, 10, false},
		{"first session", 3, 0, 3, true},
		{"empty first session", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Stats
			s.Start(sessionStart)
			for i := 0; i < tt.reps; i++ {
				s.OnRepCompleted()
			}

			best, improved := s.Stop(tt.best)
			assert.Equal(t, tt.wantBest, best)
			assert.Equal(t, tt.improved, improved)
		})
	}
}

// Reset zeroes the counter but keeps the original start time, so the rate
// after a reset divides by time since the session began, not since the reset.
func TestStats_ResetKeepsStartTime(t *testing.T) {
	var s Stats
	s.Start(sessionStart)
	for i := 0; i < 8; i++ {
		s.OnRepCompleted()
	}

	s.Reset()
	assert.Equal(t, 0, s.RepCount())
	assert.Equal(t, sessionStart, s.StartTime())

	s.OnRepCompleted()
	s.OnRepCompleted()
	snap := s.Tick(sessionStart.Add(2 * time.Minute))
	assert.Equal(t, 2, snap.RepCount)
	assert.Equal(t, 120, snap.ElapsedSeconds)
	assert.InDelta(t, 1.0, snap.Rate, 1e-9)
}

func TestStats_StartResets(t *testing.T) {
	var s Stats
	s.Start(sessionStart)
	s.OnRepCompleted()

	later := sessionStart.Add(time.Hour)
	s.Start(later)
	assert.Equal(t, 0, s.RepCount())
	assert.Equal(t, later, s.StartTime())
}

func TestSnapshot_Format(t *testing.T) {
	assert.Equal(t, "0:00", Snapshot{}.Duration())
	assert.Equal(t, "0:09", Snapshot{ElapsedSeconds: 9}.Duration())
	assert.Equal(t, "12:05", Snapshot{ElapsedSeconds: 725}.Duration())
	assert.Equal(t, "0.0", Snapshot{}.RateString())
	assert.Equal(t, "7.3", Snapshot{Rate: 7.26}.RateString())
}
