package replay

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/goldenreps/testdata"
)

func TestRun_Pushups(t *testing.T) {
	f, err := testdata.OpenPoses(testdata.Pushups)
	require.NoError(t, err)
	defer f.Close()

	res, err := RunReader(f, Options{})
	require.NoError(t, err)

	assert.Equal(t, 12, res.Reps)
	assert.Equal(t, 12, res.Downs)
	assert.Equal(t, 1, res.NoPose)
	assert.Equal(t, 2, res.NoSignal)
	require.Len(t, res.Milestones, 1)
	assert.Equal(t, 10, res.Milestones[0].Count)
	assert.Equal(t, 4, res.Stats.ElapsedSeconds)
	assert.InDelta(t, 180.0, res.Stats.Rate, 1e-9)
}

func TestRun_JitterCountsNothing(t *testing.T) {
	data, err := testdata.LoadPoses(testdata.Jitter)
	require.NoError(t, err)

	res, err := RunReader(strings.NewReader(string(data)), Options{})
	require.NoError(t, err)

	assert.Equal(t, 30, res.Frames)
	assert.Zero(t, res.Reps)
	assert.Zero(t, res.Downs)
}

func TestRun_ThresholdOverride(t *testing.T) {
	data, err := testdata.LoadPoses(testdata.Pushups)
	require.NoError(t, err)

	res, err := RunReader(strings.NewReader(string(data)), Options{Threshold: 60})
	require.NoError(t, err)
	assert.Zero(t, res.Reps, "40px strokes stay under a 60px threshold")
}

func TestRun_SignalTrace(t *testing.T) {
	input := `
# the worked example
{"t_ms":0,"signal":100}
{"t_ms":1000,"signal":100}
{"t_ms":2000,"signal":130}
{"t_ms":3000,"signal":160}
{"t_ms":4000,"signal":130}
{"t_ms":5000,"signal":100}
`
	res, err := RunReader(strings.NewReader(input), Options{})
	require.NoError(t, err)

	assert.Equal(t, 6, res.Frames)
	assert.Equal(t, 1, res.Reps)
	assert.Equal(t, 1, res.Downs)
	assert.Equal(t, 5, res.Stats.ElapsedSeconds)
}

func TestRun_Empty(t *testing.T) {
	res := Run(nil, Options{})
	assert.Zero(t, res.Frames)
	assert.Zero(t, res.Reps)
	assert.Zero(t, res.Stats.Rate)
}

func TestDecode_BadLine(t *testing.T) {
	_, err := Decode(strings.NewReader("{\"signal\":1}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestRunFile(t *testing.T) {
	data, err := testdata.LoadPoses(testdata.Pushups)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	res, err := RunFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 12, res.Reps)

	_, err = RunFile(filepath.Join(t.TempDir(), "missing.jsonl"), Options{})
	assert.Error(t, err)
}

func TestRecordings(t *testing.T) {
	names, err := testdata.Recordings()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{testdata.Jitter, testdata.Pushups}, names)
}
