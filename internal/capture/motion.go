package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
)

// MotionDetector detects motion between consecutive video frames
// using frame differencing with Gaussian blur for noise reduction.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a MotionDetector. The threshold is the percentage
// of pixels that must change, so 1.0 means 1% of the frame.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame with the previous one and reports whether motion was
// seen along with the percentage of changed pixels. The first frame only
// becomes the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	totalPixels := thresh.Rows() * thresh.Cols()
	changePercent := float64(nonZero) / float64(totalPixels) * 100.0

	blurred.CopyTo(&m.prevGray)

	return changePercent > m.threshold, changePercent
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prevGray.Close()
	m.prevGray = gocv.NewMat()
	m.initialized = false
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.Reset()
}

// SetThreshold sets the change percentage. Values <= 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = threshold
}

// Detector is the part of MotionDetector used by MotionGate.
type Detector interface {
	Detect(frame *gocv.Mat) (bool, float64)
	Reset()
}

// MotionGate decides whether a frame is worth sending to the pose estimator.
// After idleTimeout without motion it reports idle, and the caller drops to
// its idle frame rate until motion is seen again. A disabled gate always
// reports active.
type MotionGate struct {
	detector    Detector
	idleTimeout time.Duration
	lastMotion  time.Time
	idle        bool
}

// NewMotionGate returns a gate over d. A nil detector disables gating.
func NewMotionGate(d Detector, idleTimeout time.Duration) *MotionGate {
	return &MotionGate{detector: d, idleTimeout: idleTimeout}
}

// Enabled reports whether the gate has a detector.
func (g *MotionGate) Enabled() bool {
	return g != nil && g.detector != nil
}

// Active reports whether frame should be processed. It is not safe for
// concurrent use; the frame loop owns the gate.
func (g *MotionGate) Active(frame *gocv.Mat, now time.Time) bool {
	if !g.Enabled() {
		return true
	}

	moved, _ := g.detector.Detect(frame)
	if moved || g.lastMotion.IsZero() {
		g.lastMotion = now
		g.idle = false
		return true
	}

	if now.Sub(g.lastMotion) >= g.idleTimeout {
		g.idle = true
	}
	return !g.idle
}

// Idle reports whether the last Active call found the scene idle.
func (g *MotionGate) Idle() bool {
	return g.Enabled() && g.idle
}

// Reset forgets the baseline and the last motion time.
func (g *MotionGate) Reset() {
	if !g.Enabled() {
		return
	}
	g.detector.Reset()
	g.lastMotion = time.Time{}
	g.idle = false
}
