package rep

import "github.com/ayusman/goldenreps/internal/pose"

// ConfidenceGate is the minimum keypoint confidence (exclusive) for a joint
// to contribute to the signal.
const ConfidenceGate = 0.5

// ExtractSignal reduces a pose to the body-height signal: the mean of the
// shoulder and nose Y coordinates. The right shoulder is preferred, falling
// back to the left one. It returns false when either proxy is missing or
// below ConfidenceGate; the detector must then be skipped for this frame.
func ExtractSignal(p pose.Pose) (float64, bool) {
	return ExtractSignalGated(p, ConfidenceGate)
}

// ExtractSignalGated is ExtractSignal with an explicit confidence gate.
func ExtractSignalGated(p pose.Pose, gate float64) (float64, bool) {
	shoulder, ok := shoulderProxy(p, gate)
	if !ok {
		return 0, false
	}

	nose, ok := p.Keypoint(pose.Nose)
	if !ok || !nose.Confident(gate) {
		return 0, false
	}

	return (shoulder.Y + nose.Y) / 2, true
}

func shoulderProxy(p pose.Pose, gate float64) (pose.Keypoint, bool) {
	if right, ok := p.Keypoint(pose.RightShoulder); ok && right.Confident(gate) {
		return right, true
	}
	if left, ok := p.Keypoint(pose.LeftShoulder); ok && left.Confident(gate) {
		return left, true
	}
	return pose.Keypoint{}, false
}
