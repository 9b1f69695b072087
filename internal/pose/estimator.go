package pose

import (
	"time"

	"gocv.io/x/gocv"
)

// Estimator defines the interface for pose estimation implementations.
type Estimator interface {
	// Estimate analyzes a video frame and returns the detected poses.
	// Returns an empty slice if nobody is in view.
	Estimate(frame *gocv.Mat) ([]Pose, error)

	// Close releases any resources held by the estimator.
	Close() error
}

// Config holds configuration options for pose estimation.
type Config struct {
	// Script is the path of the pose service script. Empty means search the
	// usual install locations.
	Script string

	// Python is the interpreter used to run Script. Empty means prefer a
	// project virtualenv, then python3.
	Python string

	// ModelType selects the model variant ("lite", "full" or "heavy").
	ModelType string

	// Smoothing enables the model's temporal landmark smoothing.
	Smoothing bool

	// FlipHorizontal mirrors the frame before estimation, matching a
	// user-facing camera preview.
	FlipHorizontal bool

	// IdleShutdown stops the service process after this long without a frame.
	IdleShutdown time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelType:      "lite",
		Smoothing:      true,
		FlipHorizontal: true,
		IdleShutdown:   30 * time.Second,
	}
}
