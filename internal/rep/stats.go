package rep

import (
	"fmt"
	"time"
)

// Snapshot holds the derived statistics at one tick.
type Snapshot struct {
	RepCount       int     `json:"rep_count"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	Minutes        int     `json:"minutes"`
	Rate           float64 `json:"rate"`
}

// Duration formats the elapsed time as m:ss.
func (s Snapshot) Duration() string {
	return fmt.Sprintf("%d:%02d", s.ElapsedSeconds/60, s.ElapsedSeconds%60)
}

// RateString formats the rate with one decimal.
func (s Snapshot) RateString() string {
	return fmt.Sprintf("%.1f", s.Rate)
}

// Stats tracks the rep count and timing of one session. It is not safe for
// concurrent use; the session controller serialises access.
type Stats struct {
	repCount       int
	startTime      time.Time
	elapsedSeconds int
}

// Start begins a session at now.
func (s *Stats) Start(now time.Time) {
	s.startTime = now
	s.repCount = 0
	s.elapsedSeconds = 0
}

// OnRepCompleted counts one rep and returns the new total.
func (s *Stats) OnRepCompleted() int {
	s.repCount++
	return s.repCount
}

// RepCount returns the current count.
func (s *Stats) RepCount() int {
	return s.repCount
}

// StartTime returns when the session started.
func (s *Stats) StartTime() time.Time {
	return s.startTime
}

// Tick recomputes elapsed time and rate from the start time. Results depend
// only on startTime, now and the count, so irregular ticks never drift.
//
// Under one full minute the rate divides by the fractional minute count;
// from one minute on it divides by whole elapsed minutes.
func (s *Stats) Tick(now time.Time) Snapshot {
	elapsed := now.Sub(s.startTime)
	if elapsed < 0 {
		elapsed = 0
	}
	s.elapsedSeconds = int(elapsed / time.Second)

	minutes := s.elapsedSeconds / 60

	var rate float64
	switch {
	case minutes > 0:
		rate = float64(s.repCount) / float64(minutes)
	case s.elapsedSeconds > 0:
		rate = float64(s.repCount) / (float64(s.elapsedSeconds) / 60)
	}

	return Snapshot{
		RepCount:       s.repCount,
		ElapsedSeconds: s.elapsedSeconds,
		Minutes:        minutes,
		Rate:           rate,
	}
}

// Stop proposes a new best when this session beat it.
func (s *Stats) Stop(best int) (int, bool) {
	if s.repCount > best {
		return s.repCount, true
	}
	return best, false
}

// Reset zeroes the count. The start time is kept, so later rates still
// divide by the time since the original start.
func (s *Stats) Reset() {
	s.repCount = 0
}
