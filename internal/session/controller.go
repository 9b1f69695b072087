// Package session runs a push-up session: it owns the camera loop, feeds
// poses through the rep counter, ticks the statistics and tells displays
// what changed.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ayusman/goldenreps/internal/capture"
	"github.com/ayusman/goldenreps/internal/metrics"
	"github.com/ayusman/goldenreps/internal/pose"
	"github.com/ayusman/goldenreps/internal/rep"
	"github.com/ayusman/goldenreps/internal/store"
)

var (
	ErrNotRunning     = errors.New("session is not running")
	ErrAlreadyRunning = errors.New("session is already running")
)

// Config holds the tunables of a session.
type Config struct {
	Threshold      float64
	ConfidenceGate float64
	ActiveFPS      int
	IdleFPS        int
	TickInterval   time.Duration
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		Threshold:      rep.DefaultThreshold,
		ConfidenceGate: rep.ConfidenceGate,
		ActiveFPS:      capture.DefaultFPS,
		IdleFPS:        5,
		TickInterval:   time.Second,
	}
}

// BestStore persists the best session.
type BestStore interface {
	BestSession(ctx context.Context) (int, error)
	SetBestSession(ctx context.Context, n int) error
}

// HistoryStore records finished sessions.
type HistoryStore interface {
	Create(ctx context.Context, s *store.Session) error
	Finish(ctx context.Context, s *store.Session) error
}

// Deps are the collaborators of a Controller. Camera and Estimator are
// required; the rest are optional.
type Deps struct {
	Camera    capture.Camera
	Estimator pose.Estimator
	Motion    *capture.MotionGate
	Frames    *capture.FrameBuffer
	Best      BestStore
	History   HistoryStore
	Metrics   *metrics.Manager
	Logger    *zap.Logger
	Clock     func() time.Time
}

// Status is a point-in-time view of the controller.
type Status struct {
	Running   bool       `json:"running"`
	SessionID string     `json:"session_id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Phase     Phase      `json:"phase"`
	Label     string     `json:"label"`
	Reps      int        `json:"reps"`
	Stats     Stats      `json:"stats"`
	Best      int        `json:"best"`
}

// Summary describes a stopped session.
type Summary struct {
	SessionID string `json:"session_id"`
	Stats     Stats  `json:"stats"`
	Best      int    `json:"best"`
	NewBest   bool   `json:"new_best"`
}

// Controller drives sessions. Start, Stop and Close are serialised; Reset,
// Status and the frame and stats goroutines share mu.
type Controller struct {
	cfg       Config
	camera    capture.Camera
	estimator pose.Estimator
	motion    *capture.MotionGate
	frames    *capture.FrameBuffer
	best      BestStore
	history   HistoryStore
	metrics   *metrics.Manager
	logger    *zap.Logger
	now       func() time.Time

	lifecycle sync.Mutex
	wg        sync.WaitGroup
	cancel    context.CancelFunc

	mu         sync.Mutex
	running    bool
	counter    *rep.Counter
	record     *store.Session
	phase      Phase
	stats      Stats
	bestValue  int
	bestLoaded bool
	displays   []Display
}

// New creates a Controller. Zero config values fall back to DefaultConfig.
func New(cfg Config, deps Deps) *Controller {
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.ConfidenceGate <= 0 {
		cfg.ConfidenceGate = def.ConfidenceGate
	}
	if cfg.ActiveFPS <= 0 {
		cfg.ActiveFPS = def.ActiveFPS
	}
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = def.IdleFPS
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Motion == nil {
		deps.Motion = capture.NewMotionGate(nil, 0)
	}

	return &Controller{
		cfg:       cfg,
		camera:    deps.Camera,
		estimator: deps.Estimator,
		motion:    deps.Motion,
		frames:    deps.Frames,
		best:      deps.Best,
		history:   deps.History,
		metrics:   deps.Metrics,
		logger:    deps.Logger.Named("session"),
		now:       deps.Clock,
		phase:     PhaseIdle,
		stats:     newStats(rep.Snapshot{}),
	}
}

// AddDisplay registers a display for all later events.
func (c *Controller) AddDisplay(d Display) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.displays = append(c.displays, d)
}

// LoadBest reads the stored best session and publishes it.
func (c *Controller) LoadBest(ctx context.Context) (int, error) {
	best := 0
	if c.best != nil {
		var err error
		best, err = c.best.BestSession(ctx)
		if err != nil {
			return 0, fmt.Errorf("load best session: %w", err)
		}
	}

	c.mu.Lock()
	c.bestValue = best
	c.bestLoaded = true
	ev := c.event(EventBest)
	ev.Best = best
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.GaugeBestSession.Set(float64(best))
	}
	c.publish(ev)
	return best, nil
}

// Start opens the camera and begins a new session. The detector state is
// reset before the first frame is read.
func (c *Controller) Start(ctx context.Context) (Status, error) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if running {
		return c.Status(), ErrAlreadyRunning
	}

	if err := c.camera.Open(); err != nil {
		if !errors.Is(err, capture.ErrCameraUnavailable) {
			err = fmt.Errorf("%w: %v", capture.ErrCameraUnavailable, err)
		}
		if c.metrics != nil {
			c.metrics.CounterCameraErrors.Inc()
		}
		return c.Status(), fmt.Errorf("start session: %w", err)
	}
	c.camera.SetFPS(c.cfg.ActiveFPS)
	c.motion.Reset()

	now := c.now()
	record := &store.Session{ID: uuid.NewString(), StartedAt: now}
	if c.history != nil {
		if err := c.history.Create(ctx, record); err != nil {
			c.logger.Warn("failed to record session start", zap.Error(err))
		}
	}

	counter := rep.NewCounter(c.cfg.Threshold, c.cfg.ConfidenceGate)
	counter.Start(now)

	c.mu.Lock()
	c.counter = counter
	c.record = record
	c.running = true
	c.stats = newStats(rep.Snapshot{})
	events := []Event{c.repEvent(0)}
	events = c.appendPhase(events, PhaseInProgress)
	events = append(events, c.statsEvent())
	c.mu.Unlock()

	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(2)
	go c.runFrames(loopCtx)
	go c.runStats(loopCtx)

	if c.metrics != nil {
		c.metrics.GaugeSessionActive.Set(1)
		c.metrics.GaugeCurrentReps.Set(0)
		c.metrics.GaugeRepRate.Set(0)
	}

	c.logger.Info("session started", zap.String("session_id", record.ID))
	c.publish(events...)
	return c.Status(), nil
}

// Stop ends the running session. It waits for the frame and stats
// goroutines before computing the final statistics, then writes a new best
// when the session beat the stored one.
func (c *Controller) Stop(ctx context.Context) (Summary, error) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return Summary{}, ErrNotRunning
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.cancel = nil

	var errs error
	if err := c.camera.Close(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("close camera: %w", err))
	}

	// a caller that goes away mid-stop must not lose the results
	persistCtx := context.WithoutCancel(ctx)

	bestKnown := c.ensureBest(persistCtx)
	if !bestKnown {
		errs = multierr.Append(errs, errors.New("stored best session unknown, not updating it"))
	}

	now := c.now()

	c.mu.Lock()
	snap := c.counter.Tick(now)
	best, newBest := c.bestValue, false
	if bestKnown {
		best, newBest = c.counter.Stop(c.bestValue)
	}
	c.bestValue = best
	c.running = false
	c.stats = newStats(snap)

	record := c.record
	ended := now
	record.EndedAt = &ended
	record.Reps = snap.RepCount
	record.ElapsedSeconds = snap.ElapsedSeconds
	record.Rate = snap.Rate
	record.NewBest = newBest

	events := []Event{c.statsEvent()}
	events = c.appendPhase(events, PhaseEnded)
	if newBest {
		bestEv := c.event(EventBest)
		bestEv.Best = best
		events = append(events, bestEv)
	}
	summary := Summary{SessionID: record.ID, Stats: c.stats, Best: best, NewBest: newBest}
	c.mu.Unlock()

	if newBest && c.best != nil {
		if err := c.best.SetBestSession(persistCtx, best); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("save best session: %w", err))
		}
	}
	if c.history != nil {
		if err := c.history.Finish(persistCtx, record); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("record session: %w", err))
		}
	}

	if c.metrics != nil {
		c.metrics.GaugeSessionActive.Set(0)
		c.metrics.CounterSessions.WithLabelValues(strconv.FormatBool(newBest)).Inc()
		c.metrics.GaugeBestSession.Set(float64(best))
	}

	c.logger.Info("session stopped",
		zap.String("session_id", record.ID),
		zap.Int("reps", snap.RepCount),
		zap.Int("elapsed_seconds", snap.ElapsedSeconds),
		zap.Bool("new_best", newBest),
	)
	c.publish(events...)
	return summary, errs
}

// ensureBest makes sure the stored best has been read, retrying when LoadBest
// failed or never ran. It reports whether the best is known.
func (c *Controller) ensureBest(ctx context.Context) bool {
	c.mu.Lock()
	loaded := c.bestLoaded
	c.mu.Unlock()
	if loaded || c.best == nil {
		return true
	}

	stored, err := c.best.BestSession(ctx)
	if err != nil {
		c.logger.Warn("failed to read best session", zap.Error(err))
		return false
	}

	c.mu.Lock()
	c.bestValue = stored
	c.bestLoaded = true
	c.mu.Unlock()
	return true
}

// Reset zeroes the visible count. The session clock keeps running from the
// original start, and the detector state is left alone.
func (c *Controller) Reset() Status {
	c.mu.Lock()
	if c.counter != nil {
		c.counter.Reset()
	}
	c.stats = newStats(rep.Snapshot{})

	events := []Event{c.repEvent(0)}
	events = append(events, c.statsEvent(), c.event(EventMilestone))
	events = c.appendPhase(events, PhaseReset)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.GaugeCurrentReps.Set(0)
		c.metrics.GaugeRepRate.Set(0)
	}

	c.logger.Info("session reset")
	c.publish(events...)
	return c.Status()
}

// Status returns the current view of the controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Running: c.running,
		Phase:   c.phase,
		Label:   c.phase.Label(),
		Stats:   c.stats,
		Best:    c.bestValue,
	}
	if c.counter != nil {
		st.Reps = c.counter.RepCount()
	}
	if c.record != nil {
		st.SessionID = c.record.ID
		started := c.record.StartedAt
		st.StartedAt = &started
	}
	return st
}

// Running reports whether a session is in progress.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Close stops a running session and releases the estimator.
func (c *Controller) Close(ctx context.Context) error {
	var errs error
	if _, err := c.Stop(ctx); err != nil && !errors.Is(err, ErrNotRunning) {
		errs = multierr.Append(errs, err)
	}
	if err := c.estimator.Close(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("close estimator: %w", err))
	}
	return errs
}

// HandleFrame applies one frame's estimation result to the session: the
// first pose is run through the counter and the resulting phase, rep and
// milestone changes are published. It is a no-op when no session runs.
func (c *Controller) HandleFrame(poses []pose.Pose, estimateErr error) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}

	var events []Event
	if estimateErr != nil {
		c.logger.Debug("pose estimation failed", zap.Error(estimateErr))
		if c.metrics != nil {
			c.metrics.CounterEstimatorErrors.Inc()
		}
		poses = nil
	}

	var reps int
	repDone := false
	if len(poses) == 0 {
		if c.metrics != nil {
			c.metrics.CounterFramesNoPose.Inc()
		}
		events = c.appendPhase(events, PhaseDetecting)
	} else {
		p := poses[0]
		poseEv := c.event(EventPose)
		poseEv.Pose = &p
		events = append(events, poseEv)

		out := c.counter.Observe(p)
		reps = out.Count
		switch {
		case !out.HasSignal:
			if c.metrics != nil {
				c.metrics.CounterFramesNoSignal.Inc()
			}
			events = c.appendPhase(events, PhaseAligning)
		case out.Event == rep.EventDown:
			events = c.appendPhase(events, PhaseDown)
		case out.Event == rep.EventRepCompleted:
			repDone = true
			events = append(events, c.repEvent(out.Count))
			if out.Milestone != "" {
				ms := c.event(EventMilestone)
				ms.Count = out.Count
				ms.Message = out.Milestone
				ms.DisplayMs = rep.MilestoneDisplay.Milliseconds()
				events = append(events, ms)
				if c.metrics != nil {
					c.metrics.CounterMilestones.WithLabelValues(strconv.Itoa(out.Count)).Inc()
				}
				c.logger.Info("milestone reached", zap.Int("reps", out.Count), zap.String("message", out.Milestone))
			}
			events = c.appendPhase(events, PhaseUp)
		}
	}
	c.mu.Unlock()

	if repDone && c.metrics != nil {
		c.metrics.CounterReps.Inc()
		c.metrics.GaugeCurrentReps.Set(float64(reps))
	}
	c.publish(events...)
}

// tick recomputes the statistics and publishes them.
func (c *Controller) tick() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	snap := c.counter.Tick(c.now())
	c.stats = newStats(snap)
	ev := c.statsEvent()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.GaugeRepRate.Set(snap.Rate)
		c.metrics.GaugeCurrentReps.Set(float64(snap.RepCount))
	}
	c.publish(ev)
}

// event returns an event stamped with the current session. Callers hold mu.
func (c *Controller) event(t EventType) Event {
	ev := Event{Type: t, At: c.now()}
	if c.record != nil {
		ev.SessionID = c.record.ID
	}
	return ev
}

func (c *Controller) statsEvent() Event {
	ev := c.event(EventStats)
	stats := c.stats
	ev.Stats = &stats
	return ev
}

func (c *Controller) repEvent(count int) Event {
	ev := c.event(EventRep)
	ev.Count = count
	return ev
}

// appendPhase moves to p and appends a phase event when it changed.
// Callers hold mu.
func (c *Controller) appendPhase(events []Event, p Phase) []Event {
	if c.phase == p {
		return events
	}
	c.phase = p
	ev := c.event(EventPhase)
	ev.Phase = p
	ev.PhaseLabel = p.Label()
	return append(events, ev)
}

func (c *Controller) publish(events ...Event) {
	if len(events) == 0 {
		return
	}
	c.mu.Lock()
	displays := append([]Display(nil), c.displays...)
	c.mu.Unlock()

	for _, ev := range events {
		for _, d := range displays {
			d.Publish(ev)
		}
	}
}
