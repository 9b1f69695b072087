// Package tray provides a system tray interface for goldenreps.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/goldenreps/internal/session"
)

// Tray represents the system tray application. It implements
// session.Display and mirrors the session in its title and menu.
type Tray struct {
	onToggle    func(start bool)
	onReset     func()
	onDashboard func()
	onQuit      func()
	view        view
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuReset     *systray.MenuItem
	menuStatus    *systray.MenuItem
	menuStats     *systray.MenuItem
	menuBest      *systray.MenuItem
	menuMilestone *systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback for the start/stop menu item. start is true
// when the user asked to start a session.
func (t *Tray) OnToggle(fn func(start bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnReset sets the callback for the reset menu item.
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnDashboard sets the callback for the dashboard menu item.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray loop.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTooltip("Golden Reps push-up counter")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem("Start Session", "Start or stop a session")
	t.menuReset = systray.AddMenuItem("Reset", "Reset the rep counter")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem("", "Session status")
	t.menuStatus.Disable()
	t.menuStats = systray.AddMenuItem("", "Duration and reps per minute")
	t.menuStats.Disable()
	t.menuBest = systray.AddMenuItem("", "Best session")
	t.menuBest.Disable()
	t.menuMilestone = systray.AddMenuItem("", "Milestone")
	t.menuMilestone.Disable()
	t.menuMilestone.Hide()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Golden Reps")
	t.render()
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuReset.ClickedCh:
				t.handleReset()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// Publish implements session.Display.
func (t *Tray) Publish(ev session.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.view.apply(ev) {
		t.render()
	}
}

// render pushes the view onto the menu. Callers hold mu.
func (t *Tray) render() {
	if t.menuToggle == nil {
		return
	}

	systray.SetTitle(t.view.title())
	t.menuToggle.SetTitle(t.view.toggleLabel())
	t.menuStatus.SetTitle(t.view.statusLine())
	t.menuStats.SetTitle(t.view.statsLine())
	t.menuBest.SetTitle(t.view.bestLine())

	if t.view.milestone != "" {
		t.menuMilestone.SetTitle(t.view.milestone)
		t.menuMilestone.Show()
	} else {
		t.menuMilestone.Hide()
	}
}

// handleToggle handles the start/stop menu item click.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	start := !t.view.running
	callback := t.onToggle
	t.mu.RUnlock()

	// Call the callback outside the lock; it publishes back into the tray
	if callback != nil {
		callback(start)
	}
}

func (t *Tray) handleReset() {
	t.mu.RLock()
	callback := t.onReset
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// IsRunning reports whether the tray believes a session is running.
func (t *Tray) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.view.running
}
