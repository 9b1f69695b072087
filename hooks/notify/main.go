// Package main provides a desktop notification hook.
// It shows milestones and new bests with notify-send on Linux and
// AppleScript on macOS.
//
// Build it next to its manifest:
//
//	go build -o hooks/notify/notify ./hooks/notify
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

const title = "Golden Reps"

// Event is the part of a session event this hook reads.
type Event struct {
	Type    string `json:"type"`
	Count   int    `json:"count"`
	Message string `json:"message"`
	Best    int    `json:"best"`
}

// Request represents the input from the hook runner.
type Request struct {
	Hook  string `json:"hook"`
	Event Event  `json:"event"`
}

// Response represents the output to the hook runner.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("decode request: %w", err))
		return
	}

	body, ok := message(req.Event)
	if !ok {
		writeResponse(nil)
		return
	}
	writeResponse(notify(body))
}

// message returns the notification text for ev.
func message(ev Event) (string, bool) {
	switch ev.Type {
	case "milestone":
		if ev.Message == "" {
			return "", false
		}
		return fmt.Sprintf("%s (%d reps)", ev.Message, ev.Count), true
	case "best":
		return fmt.Sprintf("New best session: %d reps", ev.Best), true
	}
	return "", false
}

func notify(body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		cmd = exec.Command("osascript", "-e", script)
	case "linux":
		cmd = exec.Command("notify-send", "--app-name=goldenreps", title, body)
	default:
		return fmt.Errorf("notifications are not supported on %s", runtime.GOOS)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
