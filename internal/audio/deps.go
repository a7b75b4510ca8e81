package audio

import (
	"bytes"
	"context"
	"os/exec"
)

// commandRunner executes external commands, returning stdout and stderr
// separately. ffmpeg writes diagnostics to stderr and extracted media to
// stdout, so the two streams must not be combined.
type commandRunner interface {
	Run(ctx context.Context, name string, args []string) (stdout, stderr []byte, err error)
}

// osCommandRunner implements commandRunner using exec.CommandContext.
type osCommandRunner struct{}

func (osCommandRunner) Run(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	// #nosec G204 -- name and args are constructed by the extractor, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
