// Package replay runs recorded pose frames through the rep counter offline.
//
// A recording is JSON Lines, one frame per line:
//
//	{"t_ms":0,"poses":[{"score":0.9,"keypoints":[{"x":1,"y":2,"score":0.9}, ...]}]}
//	{"t_ms":66,"signal":212.5}
//
// Keypoints are indexed in COCO-17 order. A line may carry a precomputed
// signal instead of poses. Blank lines and lines starting with # are skipped.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ayusman/goldenreps/internal/pose"
	"github.com/ayusman/goldenreps/internal/rep"
)

// maxLineSize bounds a single JSONL frame.
const maxLineSize = 1 << 20

// Frame is one recorded frame.
type Frame struct {
	TimeMs int64       `json:"t_ms"`
	Poses  []pose.Pose `json:"poses,omitempty"`
	Signal *float64    `json:"signal,omitempty"`
}

// MilestoneHit is a milestone reached during replay.
type MilestoneHit struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
	TimeMs  int64  `json:"t_ms"`
}

// Result summarises a replay.
type Result struct {
	Frames     int            `json:"frames"`
	NoPose     int            `json:"no_pose"`
	NoSignal   int            `json:"no_signal"`
	Downs      int            `json:"downs"`
	Reps       int            `json:"reps"`
	Milestones []MilestoneHit `json:"milestones,omitempty"`
	Stats      rep.Snapshot   `json:"stats"`
}

// Options tunes a replay. Zero values use the counter defaults.
type Options struct {
	Threshold      float64
	ConfidenceGate float64
}

// Decode reads every frame of a recording.
func Decode(r io.Reader) ([]Frame, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var frames []Frame
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var f Frame
		if err := json.Unmarshal([]byte(line), &f); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		frames = append(frames, f)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return frames, nil
}

// Run feeds frames through a fresh counter. Time is taken from the frames'
// t_ms offsets, and the final statistics are computed at the last frame.
func Run(frames []Frame, opts Options) Result {
	counter := rep.NewCounter(opts.Threshold, opts.ConfidenceGate)

	epoch := time.Unix(0, 0)
	var first int64
	if len(frames) > 0 {
		first = frames[0].TimeMs
	}
	counter.Start(epoch.Add(time.Duration(first) * time.Millisecond))

	var res Result
	last := first
	for _, f := range frames {
		res.Frames++
		last = f.TimeMs

		var out rep.Outcome
		switch {
		case f.Signal != nil:
			out = counter.ObserveSignal(*f.Signal)
		case len(f.Poses) == 0:
			res.NoPose++
			continue
		default:
			out = counter.Observe(f.Poses[0])
			if !out.HasSignal {
				res.NoSignal++
				continue
			}
		}

		switch out.Event {
		case rep.EventDown:
			res.Downs++
		case rep.EventRepCompleted:
			if out.Milestone != "" {
				res.Milestones = append(res.Milestones, MilestoneHit{
					Count:   out.Count,
					Message: out.Milestone,
					TimeMs:  f.TimeMs,
				})
			}
		}
	}

	res.Stats = counter.Tick(epoch.Add(time.Duration(last) * time.Millisecond))
	res.Reps = res.Stats.RepCount
	return res
}

// RunReader decodes and replays a recording.
func RunReader(r io.Reader, opts Options) (Result, error) {
	frames, err := Decode(r)
	if err != nil {
		return Result{}, err
	}
	return Run(frames, opts), nil
}

// RunFile decodes and replays the recording at path.
func RunFile(path string, opts Options) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	return RunReader(f, opts)
}
