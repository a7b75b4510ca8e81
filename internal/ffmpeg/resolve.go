// Package ffmpeg locates the ffmpeg binary used for media extraction.
// The pipeline delegates all codec work to ffmpeg; this package only
// resolves which binary to run.
package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
)

// EnvPath is the environment variable for a custom ffmpeg path.
const EnvPath = "FFMPEG_PATH"

// Resolve returns the path to the ffmpeg binary.
// Resolution order: the FFMPEG_PATH environment variable, then $PATH.
func Resolve() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		info, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("%s=%q: %v: %w", EnvPath, p, err, ErrNotFound)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s=%q is a directory: %w", EnvPath, p, ErrNotFound)
		}
		return p, nil
	}

	p, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not in PATH (set %s to override): %w", EnvPath, ErrNotFound)
	}
	return p, nil
}
