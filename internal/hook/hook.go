// Package hook runs user executables when session events happen, such as a
// milestone or a new best. Each hook lives in its own directory under the hooks
// directory and is described by a hook.json manifest.
package hook

import (
	"slices"

	"github.com/ayusman/goldenreps/internal/session"
)

// ManifestFile is the manifest name looked up in each hook directory.
const ManifestFile = "hook.json"

// Manifest describes a hook and the events it subscribes to.
type Manifest struct {
	Name        string              `json:"name"`
	Version     string              `json:"version"`
	Description string              `json:"description"`
	Executable  string              `json:"executable"`
	Events      []session.EventType `json:"events"`
}

// Request is written to the hook's stdin as JSON.
type Request struct {
	Hook  string        `json:"hook"`
	Event session.Event `json:"event"`
}

// Response is read from the hook's stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the hook subscribed to events of type t.
func (h *Hook) Handles(t session.EventType) bool {
	return slices.Contains(h.Manifest.Events, t)
}
