// Package config loads goldenreps settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Motion   MotionConfig   `yaml:"motion"`
	Pose     PoseConfig     `yaml:"pose"`
	Storage  StorageConfig  `yaml:"storage"`
	Stats    StatsConfig    `yaml:"stats"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Hooks    HooksConfig    `yaml:"hooks"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

type CameraConfig struct {
	DeviceID int `yaml:"device_id"`
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	FPS      int `yaml:"fps"`
	IdleFPS  int `yaml:"idle_fps"`
}

type DetectorConfig struct {
	Threshold      float64 `yaml:"threshold"`
	ConfidenceGate float64 `yaml:"confidence_gate"`
}

type MotionConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Threshold   float64       `yaml:"threshold"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type PoseConfig struct {
	Script       string        `yaml:"script"`
	Python       string        `yaml:"python"`
	Model        string        `yaml:"model"`
	IdleShutdown time.Duration `yaml:"idle_shutdown"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type StatsConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type HooksConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DataDir returns ~/.goldenreps, falling back to the working directory when
// the home directory is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".goldenreps"
	}
	return filepath.Join(home, ".goldenreps")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8080},
		Camera: CameraConfig{DeviceID: 0, Width: 640, Height: 480, FPS: 15, IdleFPS: 5},
		Detector: DetectorConfig{
			Threshold:      25,
			ConfidenceGate: 0.5,
		},
		Motion: MotionConfig{
			Enabled:     false,
			Threshold:   1.0,
			IdleTimeout: 2 * time.Second,
		},
		Pose: PoseConfig{
			Model:        "lite",
			IdleShutdown: 30 * time.Second,
		},
		Storage: StorageConfig{Path: filepath.Join(DataDir(), "goldenreps.db")},
		Stats:   StatsConfig{TickInterval: time.Second},
		Logging: LoggingConfig{Level: "info", MaxSizeMB: 50},
		Metrics: MetricsConfig{Enabled: true},
		Hooks: HooksConfig{
			Enabled: true,
			Dir:     filepath.Join(DataDir(), "hooks"),
			Timeout: 5 * time.Second,
		},
	}
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. An empty path skips the file.
// Env vars use the prefix GOLDENREPS_:
//
//	GOLDENREPS_SERVER_HOST, GOLDENREPS_SERVER_PORT, GOLDENREPS_CAMERA_DEVICE,
//	GOLDENREPS_STORAGE_PATH, GOLDENREPS_LOG_LEVEL, GOLDENREPS_LOG_FILE,
//	GOLDENREPS_DETECTOR_THRESHOLD, GOLDENREPS_MOTION_ENABLED, GOLDENREPS_HOOKS_DIR
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("environment override: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GOLDENREPS_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("GOLDENREPS_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GOLDENREPS_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("GOLDENREPS_CAMERA_DEVICE"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GOLDENREPS_CAMERA_DEVICE: %w", err)
		}
		cfg.Camera.DeviceID = id
	}
	if v := os.Getenv("GOLDENREPS_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("GOLDENREPS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("GOLDENREPS_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("GOLDENREPS_DETECTOR_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("GOLDENREPS_DETECTOR_THRESHOLD: %w", err)
		}
		cfg.Detector.Threshold = threshold
	}
	if v := os.Getenv("GOLDENREPS_MOTION_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GOLDENREPS_MOTION_ENABLED: %w", err)
		}
		cfg.Motion.Enabled = enabled
	}
	if v := os.Getenv("GOLDENREPS_HOOKS_DIR"); v != "" {
		cfg.Hooks.Dir = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return errors.New("camera.width and camera.height must be positive")
	}
	if c.Camera.FPS <= 0 {
		return errors.New("camera.fps must be positive")
	}
	if c.Camera.IdleFPS <= 0 || c.Camera.IdleFPS > c.Camera.FPS {
		return fmt.Errorf("camera.idle_fps must be in (0, %d]", c.Camera.FPS)
	}
	if c.Detector.Threshold <= 0 {
		return errors.New("detector.threshold must be positive")
	}
	if c.Detector.ConfidenceGate < 0 || c.Detector.ConfidenceGate >= 1 {
		return errors.New("detector.confidence_gate must be in [0, 1)")
	}
	if c.Motion.Enabled && c.Motion.Threshold <= 0 {
		return errors.New("motion.threshold must be positive when motion gating is enabled")
	}
	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}
	if c.Stats.TickInterval <= 0 {
		return errors.New("stats.tick_interval must be positive")
	}
	if c.Hooks.Enabled && c.Hooks.Timeout <= 0 {
		return errors.New("hooks.timeout must be positive when hooks are enabled")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
