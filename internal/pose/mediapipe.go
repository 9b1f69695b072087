package pose

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

const serviceScript = "pose_service.py"

// ErrServiceNotFound is returned when the pose service script cannot be located.
var ErrServiceNotFound = errors.New(serviceScript + " not found")

// MediaPipeEstimator implements Estimator by streaming frames to a Python
// MediaPipe pose service over stdin/stdout.
//
// Wire format: each frame is a 4-byte big-endian length followed by JPEG
// bytes; the service answers with one JSON line per frame.
type MediaPipeEstimator struct {
	config    Config
	script    string
	logger    *zap.Logger
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
	idleGen   uint64
}

// NewMediaPipeEstimator creates a new MediaPipe estimator.
// The Python process is started lazily on the first frame.
func NewMediaPipeEstimator(config Config, logger *zap.Logger) (*MediaPipeEstimator, error) {
	script := config.Script
	if script == "" {
		script = findServiceScript()
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("pose service script: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MediaPipeEstimator{
		config: config,
		script: script,
		logger: logger,
	}, nil
}

// Estimate sends the frame to the service and returns the detected poses.
func (e *MediaPipeEstimator) Estimate(frame *gocv.Mat) ([]Pose, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := e.stdin.Write(length); err != nil {
		e.abort()
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := e.stdin.Write(data); err != nil {
		e.abort()
		return nil, fmt.Errorf("write frame: %w", err)
	}

	line, err := e.stdout.ReadBytes('\n')
	if err != nil {
		e.abort()
		return nil, fmt.Errorf("read response: %w", err)
	}

	poses, err := decodeResponse(line)
	if err != nil {
		return nil, err
	}

	e.resetIdleTimer()
	return poses, nil
}

// Close shuts down the Python process.
func (e *MediaPipeEstimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown()
}

func (e *MediaPipeEstimator) ensureStarted() error {
	if e.started {
		return nil
	}

	python := e.config.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	args := []string{e.script, "--model", e.config.ModelType}
	if e.config.Smoothing {
		args = append(args, "--smoothing")
	}
	if e.config.FlipHorizontal {
		args = append(args, "--flip")
	}
	e.cmd = exec.Command(python, args...)

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	e.cmd.Stderr = os.Stderr

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	e.stdin = stdin
	e.stdout = bufio.NewReader(stdout)
	e.started = true

	e.logger.Info("pose service started",
		zap.String("python", python),
		zap.String("script", e.script),
		zap.String("model", e.config.ModelType),
	)
	return nil
}

// abort tears the process down after a broken pipe so the next frame
// restarts it.
func (e *MediaPipeEstimator) abort() {
	if err := e.shutdown(); err != nil {
		e.logger.Debug("pose service exited", zap.Error(err))
	}
}

func (e *MediaPipeEstimator) shutdown() error {
	if !e.started {
		return nil
	}

	if e.idleTimer != nil {
		e.idleTimer.Stop()
		e.idleTimer = nil
	}
	e.idleGen++

	if e.stdin != nil {
		e.stdin.Close()
	}

	err := e.cmd.Wait()
	e.started = false
	e.cmd = nil
	e.stdin = nil
	e.stdout = nil

	e.logger.Info("pose service stopped")
	return err
}

func (e *MediaPipeEstimator) resetIdleTimer() {
	if e.config.IdleShutdown <= 0 {
		return
	}
	if e.idleTimer != nil {
		e.idleTimer.Stop()
	}
	e.idleGen++
	gen := e.idleGen
	e.idleTimer = time.AfterFunc(e.config.IdleShutdown, func() {
		e.idleExpired(gen)
	})
}

// idleExpired shuts the service down unless a frame was served after the
// timer for gen was armed. A timer that fires while Estimate holds the lock
// is stale by the time it gets it.
func (e *MediaPipeEstimator) idleExpired(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.idleGen {
		return
	}
	if err := e.shutdown(); err != nil {
		e.logger.Debug("idle pose service shutdown", zap.Error(err))
	}
}

func findServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", serviceScript),
		filepath.Join("..", "scripts", serviceScript),
		filepath.Join(execDir, "scripts", serviceScript),
		filepath.Join(os.Getenv("HOME"), ".goldenreps", "scripts", serviceScript),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment
// next to the working directory, the executable, or the data directory.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".goldenreps/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// jsonResponse is one line emitted by the pose service.
type jsonResponse struct {
	Poses []jsonPose `json:"poses"`
	Error string     `json:"error,omitempty"`
}

type jsonPose struct {
	Keypoints []jsonKeypoint `json:"keypoints"`
	Score     float64        `json:"score"`
}

type jsonKeypoint struct {
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

func decodeResponse(line []byte) ([]Pose, error) {
	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("pose service: %s", resp.Error)
	}

	poses := make([]Pose, 0, len(resp.Poses))
	for _, jp := range resp.Poses {
		poses = append(poses, jp.toPose())
	}
	return poses, nil
}

// toPose places named keypoints into their COCO slots. Unknown names are
// dropped; missing ones stay at zero confidence.
func (jp jsonPose) toPose() Pose {
	p := NewPose()
	p.Score = jp.Score
	for _, kp := range jp.Keypoints {
		idx, ok := KeypointIndex(kp.Name)
		if !ok {
			continue
		}
		p.Keypoints[idx] = Keypoint{X: kp.X, Y: kp.Y, Score: kp.Score}
	}
	return p
}
