// Package metrics exposes Prometheus instruments for the rep-counting pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterFrames          prometheus.Counter
	CounterFramesNoPose    prometheus.Counter
	CounterFramesNoSignal  prometheus.Counter
	CounterFramesIdle      prometheus.Counter
	CounterEstimatorErrors prometheus.Counter
	CounterCameraErrors    prometheus.Counter
	CounterReps            prometheus.Counter
	CounterMilestones      *prometheus.CounterVec
	CounterSessions        *prometheus.CounterVec
	CounterHookRuns        *prometheus.CounterVec

	// gauges
	GaugeSessionActive prometheus.Gauge
	GaugeCurrentReps   prometheus.Gauge
	GaugeRepRate       prometheus.Gauge
	GaugeBestSession   prometheus.Gauge

	// histograms
	HistFrameDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("goldenreps", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("goldenreps", "test", reg), reg
}

// NewRegistry returns a registry carrying the Go runtime, process and build
// info collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}

	return &Manager{
		CounterFrames:          counter("frames_processed_total", "Frames taken through the pipeline"),
		CounterFramesNoPose:    counter("frames_no_pose_total", "Frames where no person was detected"),
		CounterFramesNoSignal:  counter("frames_no_signal_total", "Frames whose keypoints failed the confidence gate"),
		CounterFramesIdle:      counter("frames_idle_total", "Frames skipped by the motion gate"),
		CounterEstimatorErrors: counter("estimator_errors_total", "Pose estimation failures"),
		CounterCameraErrors:    counter("camera_errors_total", "Camera read failures"),
		CounterReps:            counter("reps_total", "Completed repetitions across all sessions"),
		CounterMilestones: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "milestones_total",
			Help:      "Milestones reached, by rep count",
		}, []string{"count"}),
		CounterSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_total",
			Help:      "Finished sessions, by whether they set a new best",
		}, []string{"new_best"}),
		CounterHookRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hook_runs_total",
			Help:      "Hook executions, by hook and result",
		}, []string{"hook", "result"}),

		GaugeSessionActive: gauge("session_active", "1 while a session is running"),
		GaugeCurrentReps:   gauge("current_reps", "Rep count of the running session"),
		GaugeRepRate:       gauge("rep_rate_per_minute", "Reps per minute of the running session"),
		GaugeBestSession:   gauge("best_session_reps", "Stored best session"),

		HistFrameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frame_duration_seconds",
			Help:      "Time to read, estimate and process one frame",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}
}
