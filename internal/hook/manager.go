package hook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/goldenreps/internal/session"
)

// ErrHookNotFound is returned when a requested hook cannot be found.
var ErrHookNotFound = errors.New("hook not found")

// hookEvents are the event types a hook may subscribe to. Per-frame events
// such as pose are excluded.
var hookEvents = map[session.EventType]bool{
	session.EventPhase:     true,
	session.EventRep:       true,
	session.EventMilestone: true,
	session.EventBest:      true,
}

// Manager discovers hooks in a directory.
type Manager struct {
	dir    string
	logger *zap.Logger
	hooks  map[string]*Hook
	mu     sync.RWMutex
}

// NewManager creates a Manager over dir.
func NewManager(dir string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		dir:    dir,
		logger: logger.Named("hook"),
		hooks:  make(map[string]*Hook),
	}
}

// Discover scans the hooks directory for hook.json manifests and replaces the
// known hooks. A missing directory means no hooks. Unreadable or invalid
// manifests are skipped with a warning.
func (m *Manager) Discover() error {
	hooks := make(map[string]*Hook)

	info, err := os.Stat(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		m.swap(hooks)
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat hooks dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("hooks dir %s is not a directory", m.dir)
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("read hooks dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		h, err := loadHook(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			m.logger.Warn("skipping hook", zap.String("path", path), zap.Error(err))
			continue
		}
		hooks[h.Manifest.Name] = h
	}

	m.swap(hooks)
	m.logger.Info("hooks discovered", zap.String("dir", m.dir), zap.Int("count", len(hooks)))
	return nil
}

func (m *Manager) swap(hooks map[string]*Hook) {
	m.mu.Lock()
	m.hooks = hooks
	m.mu.Unlock()
}

func loadHook(path string) (*Hook, error) {
	data, err := os.ReadFile(filepath.Join(path, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.Name == "" {
		return nil, errors.New("manifest has no name")
	}
	if manifest.Executable == "" {
		return nil, errors.New("manifest has no executable")
	}
	for _, ev := range manifest.Events {
		if !hookEvents[ev] {
			return nil, fmt.Errorf("unsupported event %q", ev)
		}
	}

	return &Hook{
		Manifest:   manifest,
		Path:       path,
		Executable: filepath.Join(path, manifest.Executable),
	}, nil
}

// Get returns a hook by name.
// Returns ErrHookNotFound if the hook does not exist.
func (m *Manager) Get(name string) (*Hook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hooks[name]
	if !ok {
		return nil, ErrHookNotFound
	}
	return h, nil
}

// List returns the discovered hooks sorted by name.
func (m *Manager) List() []*Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hooks := make([]*Hook, 0, len(m.hooks))
	for _, h := range m.hooks {
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool {
		return hooks[i].Manifest.Name < hooks[j].Manifest.Name
	})
	return hooks
}

// For returns the hooks subscribed to t, sorted by name.
func (m *Manager) For(t session.EventType) []*Hook {
	var out []*Hook
	for _, h := range m.List() {
		if h.Handles(t) {
			out = append(out, h)
		}
	}
	return out
}

// Dir returns the hooks directory.
func (m *Manager) Dir() string {
	return m.dir
}
