// Package pose provides body pose estimation interfaces and keypoint types.
package pose

import "math"

// Body keypoint indices following the COCO-17 convention used by MoveNet and
// the MediaPipe pose bridge.
const (
	Nose          = 0
	LeftEye       = 1
	RightEye      = 2
	LeftEar       = 3
	RightEar      = 4
	LeftShoulder  = 5
	RightShoulder = 6
	LeftElbow     = 7
	RightElbow    = 8
	LeftWrist     = 9
	RightWrist    = 10
	LeftHip       = 11
	RightHip      = 12
	LeftKnee      = 13
	RightKnee     = 14
	LeftAnkle     = 15
	RightAnkle    = 16
	NumKeypoints  = 17
)

var keypointNames = [NumKeypoints]string{
	"nose",
	"left_eye", "right_eye",
	"left_ear", "right_ear",
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
}

// UpperBodyConnections lists the keypoint pairs a skeleton overlay draws:
// shoulder line, both arms, and the nose to each shoulder.
var UpperBodyConnections = [][2]int{
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow},
	{LeftElbow, LeftWrist},
	{RightShoulder, RightElbow},
	{RightElbow, RightWrist},
	{Nose, LeftShoulder},
	{Nose, RightShoulder},
}

// KeypointName returns the canonical name for a keypoint index, or "" if the
// index is out of range.
func KeypointName(index int) string {
	if index < 0 || index >= NumKeypoints {
		return ""
	}
	return keypointNames[index]
}

// KeypointIndex returns the index for a canonical keypoint name.
func KeypointIndex(name string) (int, bool) {
	for i, n := range keypointNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Keypoint is a single joint observation in image coordinates.
// Y grows downward, so a body lowering toward the floor increases Y.
type Keypoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// Confident reports whether the keypoint clears the given confidence gate
// and carries finite coordinates.
func (k Keypoint) Confident(gate float64) bool {
	// NaN fails every comparison, so test for the passing case.
	if !(k.Score > gate) {
		return false
	}
	return !math.IsNaN(k.X) && !math.IsNaN(k.Y) && !math.IsInf(k.X, 0) && !math.IsInf(k.Y, 0)
}

// Pose is one detected person. Keypoints are indexed by the constants above;
// a short slice means the trailing keypoints were not reported.
type Pose struct {
	Keypoints []Keypoint `json:"keypoints"`
	Score     float64    `json:"score"`
}

// Keypoint returns the keypoint at index and whether it is present.
func (p Pose) Keypoint(index int) (Keypoint, bool) {
	if index < 0 || index >= len(p.Keypoints) {
		return Keypoint{}, false
	}
	return p.Keypoints[index], true
}

// NewPose returns a pose with all NumKeypoints slots allocated at zero confidence.
func NewPose() Pose {
	return Pose{Keypoints: make([]Keypoint, NumKeypoints)}
}
