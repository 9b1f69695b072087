package hook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ayusman/goldenreps/internal/session"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("hooks are shell scripts in tests")
	}
}

// writeHook creates dir/name with a hook.json manifest and a run.sh script.
func writeHook(t *testing.T, dir, name, script string, events ...session.EventType) *Hook {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(path, 0755))

	manifest := Manifest{
		Name:       name,
		Version:    "1.0.0",
		Executable: "run.sh",
		Events:     events,
	}
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(path, ManifestFile), data, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(path, "run.sh"), []byte("#!/bin/sh\n"+script), 0755))

	return &Hook{Manifest: manifest, Path: path, Executable: filepath.Join(path, "run.sh")}
}
