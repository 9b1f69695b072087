// Package testdata embeds recorded pose sessions used by tests.
package testdata

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed poses/*.jsonl
var posesFS embed.FS

// Recording names.
const (
	// Pushups holds twelve side-on push-ups with a brief occlusion and a
	// frame with nobody in view.
	Pushups = "pushups.jsonl"
	// Jitter holds a plank hold whose signal never moves past the threshold.
	Jitter = "jitter.jsonl"
)

// LoadPoses returns the raw JSONL of a pose recording.
func LoadPoses(name string) ([]byte, error) {
	data, err := posesFS.ReadFile("poses/" + name)
	if err != nil {
		return nil, fmt.Errorf("load poses %s: %w", name, err)
	}
	return data, nil
}

// OpenPoses opens a pose recording for streaming.
func OpenPoses(name string) (fs.File, error) {
	f, err := posesFS.Open("poses/" + name)
	if err != nil {
		return nil, fmt.Errorf("open poses %s: %w", name, err)
	}
	return f, nil
}

// Recordings lists the embedded recordings.
func Recordings() ([]string, error) {
	entries, err := posesFS.ReadDir("poses")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
