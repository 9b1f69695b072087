package pose

import (
	"errors"
	"math"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestKeypointName(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{Nose, "nose"},
		{LeftShoulder, "left_shoulder"},
		{RightShoulder, "right_shoulder"},
		{RightAnkle, "right_ankle"},
		{-1, ""},
		{NumKeypoints, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KeypointName(tt.index), "index %d", tt.index)
	}
}

func TestKeypointIndex_RoundTrip(t *testing.T) {
	for i := 0; i < NumKeypoints; i++ {
		idx, ok := KeypointIndex(KeypointName(i))
		require.True(t, ok)
		assert.Equal(t, i, idx)
	}

	_, ok := KeypointIndex("left_pinky")
	assert.False(t, ok)
}

func TestKeypoint_Confident(t *testing.T) {
	tests := []struct {
		name string
		kp   Keypoint
		want bool
	}{
		{"above gate", Keypoint{X: 1, Y: 2, Score: 0.51}, true},
		{"exactly at gate is rejected", Keypoint{X: 1, Y: 2, Score: 0.5}, false},
		{"below gate", Keypoint{X: 1, Y: 2, Score: 0.1}, false},
		{"NaN coordinate", Keypoint{X: 1, Y: math.NaN(), Score: 0.9}, false},
		{"infinite coordinate", Keypoint{X: math.Inf(1), Y: 2, Score: 0.9}, false},
		{"NaN score", Keypoint{X: 1, Y: 2, Score: math.NaN()}, false},
		{"infinite score", Keypoint{X: 1, Y: 2, Score: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kp.Confident(0.5))
		})
	}
}

func TestPose_Keypoint(t *testing.T) {
	p := Pose{Keypoints: []Keypoint{{X: 1, Y: 2, Score: 0.9}}}

	kp, ok := p.Keypoint(Nose)
	require.True(t, ok)
	assert.Equal(t, 2.0, kp.Y)

	_, ok = p.Keypoint(RightShoulder)
	assert.False(t, ok, "short keypoint slice must report missing")
}

func TestDecodeResponse(t *testing.T) {
	line := []byte(`{"poses":[{"score":0.8,"keypoints":[` +
		`{"name":"nose","x":320,"y":200,"score":0.95},` +
		`{"name":"right_shoulder","x":300,"y":240,"score":0.9},` +
		`{"name":"left_pinky","x":1,"y":1,"score":0.9}]}]}` + "\n")

	poses, err := decodeResponse(line)
	require.NoError(t, err)
	require.Len(t, poses, 1)

	p := poses[0]
	assert.Len(t, p.Keypoints, NumKeypoints)
	assert.Equal(t, 0.8, p.Score)
	assert.Equal(t, 200.0, p.Keypoints[Nose].Y)
	assert.Equal(t, 240.0, p.Keypoints[RightShoulder].Y)
	assert.Zero(t, p.Keypoints[LeftShoulder].Score, "unreported keypoints stay at zero confidence")
}

func TestDecodeResponse_Errors(t *testing.T) {
	_, err := decodeResponse([]byte("not json\n"))
	assert.Error(t, err)

	_, err = decodeResponse([]byte(`{"poses":[],"error":"model not loaded"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestDecodeResponse_NoPoses(t *testing.T) {
	poses, err := decodeResponse([]byte(`{"poses":[]}`))
	require.NoError(t, err)
	assert.Empty(t, poses)
}

func TestMockEstimator_Script(t *testing.T) {
	m := NewMockEstimator()
	fixed := []Pose{PlankPose(200)}
	m.SetPoses(fixed)

	boom := errors.New("boom")
	m.Script(
		MockFrame{Poses: []Pose{PlankPose(100)}},
		MockFrame{Err: boom},
	)
	require.Equal(t, 2, m.Remaining())

	poses, err := m.Estimate(nil)
	require.NoError(t, err)
	assert.Equal(t, 90.0, poses[0].Keypoints[Nose].Y)

	_, err = m.Estimate(nil)
	assert.ErrorIs(t, err, boom)

	poses, err = m.Estimate(nil)
	require.NoError(t, err)
	assert.Equal(t, fixed, poses)
	assert.Equal(t, 3, m.Calls())

	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
}

func TestPresetPoses(t *testing.T) {
	p := PlankPose(200)
	assert.True(t, p.Keypoints[Nose].Confident(0.5))
	assert.True(t, p.Keypoints[RightShoulder].Confident(0.5))
	assert.True(t, p.Keypoints[LeftShoulder].Confident(0.5))

	occluded := OccludedPose(200)
	assert.False(t, occluded.Keypoints[Nose].Confident(0.5))
}

func TestNewMediaPipeEstimator_MissingScript(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Script = "/nonexistent/pose_service.py"

	_, err := NewMediaPipeEstimator(cfg, nil)
	assert.Error(t, err)
}

// startCat attaches a cat process to e in place of the Python service.
func startCat(t *testing.T, e *MediaPipeEstimator) {
	t.Helper()
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	e.cmd = exec.Command("cat")
	stdin, err := e.cmd.StdinPipe()
	require.NoError(t, err)
	require.NoError(t, e.cmd.Start())
	e.stdin = stdin
	e.started = true
}

func TestMediaPipeEstimator_StaleIdleTimerKeepsService(t *testing.T) {
	e := &MediaPipeEstimator{
		config: Config{IdleShutdown: time.Hour},
		logger: zaptest.NewLogger(t),
	}
	startCat(t, e)
	t.Cleanup(func() { _ = e.Close() })

	e.mu.Lock()
	e.resetIdleTimer()
	stale := e.idleGen
	// a frame is served while the first timer waits for the lock
	e.resetIdleTimer()
	e.mu.Unlock()

	e.idleExpired(stale)
	e.mu.Lock()
	assert.True(t, e.started, "stale idle timer shut the service down")
	current := e.idleGen
	e.mu.Unlock()

	e.idleExpired(current)
	e.mu.Lock()
	defer e.mu.Unlock()
	assert.False(t, e.started)
	assert.Nil(t, e.idleTimer)
}
