package pose

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockEstimator is a test implementation of the Estimator interface.
// It returns either a fixed result or, when scripted, one entry of the
// script per call and then the fixed result once the script runs out.
type MockEstimator struct {
	mu     sync.Mutex
	poses  []Pose
	err    error
	script []MockFrame
	calls  int
	closed bool
}

// MockFrame is one scripted Estimate result.
type MockFrame struct {
	Poses []Pose
	Err   error
}

// NewMockEstimator creates a new MockEstimator instance.
func NewMockEstimator() *MockEstimator {
	return &MockEstimator{}
}

// SetPoses sets the poses returned once the script is exhausted.
func (m *MockEstimator) SetPoses(poses []Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poses = poses
}

// SetError sets the error returned once the script is exhausted.
func (m *MockEstimator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Script queues per-call results.
func (m *MockEstimator) Script(frames ...MockFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, frames...)
}

// Remaining returns how many scripted frames have not been consumed.
func (m *MockEstimator) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.script)
}

// Calls returns the number of Estimate calls so far.
func (m *MockEstimator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Estimate returns the next scripted result or the fixed one.
func (m *MockEstimator) Estimate(frame *gocv.Mat) ([]Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next.Poses, next.Err
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.poses, nil
}

// Close marks the mock closed.
func (m *MockEstimator) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockEstimator) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// PlankPose returns a preset side-on push-up pose whose nose and shoulders
// sit at the given height. Both shoulders and the nose are confident.
func PlankPose(y float64) Pose {
	p := NewPose()
	p.Score = 0.9

	p.Keypoints[Nose] = Keypoint{X: 420, Y: y - 10, Score: 0.92}
	p.Keypoints[LeftEye] = Keypoint{X: 412, Y: y - 18, Score: 0.85}
	p.Keypoints[RightEye] = Keypoint{X: 428, Y: y - 18, Score: 0.86}
	p.Keypoints[LeftShoulder] = Keypoint{X: 360, Y: y + 10, Score: 0.88}
	p.Keypoints[RightShoulder] = Keypoint{X: 370, Y: y + 10, Score: 0.9}
	p.Keypoints[LeftElbow] = Keypoint{X: 360, Y: y + 60, Score: 0.8}
	p.Keypoints[RightElbow] = Keypoint{X: 372, Y: y + 60, Score: 0.82}
	p.Keypoints[LeftWrist] = Keypoint{X: 362, Y: 420, Score: 0.78}
	p.Keypoints[RightWrist] = Keypoint{X: 374, Y: 420, Score: 0.8}
	p.Keypoints[LeftHip] = Keypoint{X: 220, Y: y + 20, Score: 0.7}
	p.Keypoints[RightHip] = Keypoint{X: 226, Y: y + 20, Score: 0.72}

	return p
}

// OccludedPose returns a pose where the nose is below the confidence gate,
// as when the user has turned away from the camera.
func OccludedPose(y float64) Pose {
	p := PlankPose(y)
	p.Keypoints[Nose].Score = 0.2
	return p
}
