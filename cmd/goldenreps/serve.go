package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ayusman/goldenreps/internal/capture"
	"github.com/ayusman/goldenreps/internal/config"
	"github.com/ayusman/goldenreps/internal/hook"
	"github.com/ayusman/goldenreps/internal/metrics"
	"github.com/ayusman/goldenreps/internal/pose"
	"github.com/ayusman/goldenreps/internal/server"
	"github.com/ayusman/goldenreps/internal/session"
	"github.com/ayusman/goldenreps/internal/store"
	"github.com/ayusman/goldenreps/internal/tray"
)

const shutdownGrace = 5 * time.Second

var (
	serveTray  bool
	serveStart bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the counter with its dashboard",
	RunE:  runServeCmd,
}

func init() {
	// keep main on the main OS thread for the tray
	runtime.LockOSThread()

	serveCmd.Flags().BoolVar(&serveTray, "tray", false, "show a system tray icon")
	serveCmd.Flags().BoolVar(&serveStart, "start", false, "start a session immediately")
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	cfg := current.cfg
	logger := current.logger
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	st, err := store.New(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	estimator := newEstimator(cfg, logger)

	var (
		mgr      *metrics.Manager
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry()
		mgr = metrics.NewManager("goldenreps", "pipeline", reg)
		gatherer = reg
	}

	var motion *capture.MotionGate
	if cfg.Motion.Enabled {
		detector := capture.NewMotionDetector(cfg.Motion.Threshold)
		defer detector.Close()
		motion = capture.NewMotionGate(detector, cfg.Motion.IdleTimeout)
	}

	frames := capture.NewFrameBuffer()
	ctl := session.New(session.Config{
		Threshold:      cfg.Detector.Threshold,
		ConfidenceGate: cfg.Detector.ConfidenceGate,
		ActiveFPS:      cfg.Camera.FPS,
		IdleFPS:        cfg.Camera.IdleFPS,
		TickInterval:   cfg.Stats.TickInterval,
	}, session.Deps{
		Camera: capture.NewCamera(capture.Options{
			DeviceID: cfg.Camera.DeviceID,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			FPS:      cfg.Camera.FPS,
		}),
		Estimator: estimator,
		Motion:    motion,
		Frames:    frames,
		Best:      st.Settings(),
		History:   st.Sessions(),
		Metrics:   mgr,
		Logger:    logger,
	})

	hub := server.NewHub(ctl.Status, logger)
	ctl.AddDisplay(hub)

	if cfg.Hooks.Enabled {
		hooks := hook.NewManager(cfg.Hooks.Dir, logger)
		if err := hooks.Discover(); err != nil {
			logger.Warn("failed to discover hooks", zap.Error(err))
		} else if len(hooks.List()) > 0 {
			runner := hook.NewRunner(hooks, hook.NewExecutor(cfg.Hooks.Timeout), mgr, logger)
			defer runner.Close()
			ctl.AddDisplay(runner)
		}
	}

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		logger.Info("serving static files", zap.String("dir", staticDir))
	}

	srv := server.New(server.Config{
		StaticDir:  staticDir,
		Controller: ctl,
		History:    st.Sessions(),
		Best:       st.Settings(),
		Hub:        hub,
		Frames:     frames,
		Gatherer:   gatherer,
		Logger:     logger,
	})

	var t *tray.Tray
	if serveTray {
		t = newTray(ctx, ctl, cancel, "http://"+cfg.Server.Addr(), logger)
		ctl.AddDisplay(t)
	}

	if best, err := ctl.LoadBest(ctx); err != nil {
		logger.Warn("failed to load best session", zap.Error(err))
	} else {
		logger.Info("best session loaded", zap.Int("best", best))
	}

	if serveStart {
		if _, err := ctl.Start(ctx); err != nil {
			return multierr.Append(err, ctl.Close(context.Background()))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, cfg.Server.Addr(), shutdownGrace)
		cancel()
	}()

	if t != nil {
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
		cancel()
	}

	errs := <-errCh

	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer closeCancel()
	errs = multierr.Append(errs, ctl.Close(closeCtx))

	logger.Info("shut down")
	return errs
}

// newEstimator prefers the MediaPipe service and falls back to an estimator
// that never sees anyone, so the dashboard still works without Python.
func newEstimator(cfg *config.Config, logger *zap.Logger) pose.Estimator {
	pcfg := pose.DefaultConfig()
	pcfg.Script = cfg.Pose.Script
	pcfg.Python = cfg.Pose.Python
	if cfg.Pose.Model != "" {
		pcfg.ModelType = cfg.Pose.Model
	}
	if cfg.Pose.IdleShutdown > 0 {
		pcfg.IdleShutdown = cfg.Pose.IdleShutdown
	}

	mp, err := pose.NewMediaPipeEstimator(pcfg, logger)
	if err != nil {
		logger.Warn("MediaPipe not available, using mock estimator", zap.Error(err))
		return pose.NewMockEstimator()
	}
	logger.Info("using MediaPipe pose estimation", zap.String("model", pcfg.ModelType))
	return mp
}

func newTray(ctx context.Context, ctl *session.Controller, quit func(), url string, logger *zap.Logger) *tray.Tray {
	t := tray.New()
	t.OnToggle(func(start bool) {
		if start {
			if _, err := ctl.Start(ctx); err != nil {
				logger.Error("failed to start session", zap.Error(err))
			}
			return
		}
		if _, err := ctl.Stop(ctx); err != nil && !errors.Is(err, session.ErrNotRunning) {
			logger.Error("session stopped with errors", zap.Error(err))
		}
	})
	t.OnReset(func() { ctl.Reset() })
	t.OnDashboard(func() {
		if err := openBrowser(url); err != nil {
			logger.Warn("failed to open browser", zap.Error(err))
		}
	})
	t.OnQuit(quit)
	return t
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.goldenreps/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
