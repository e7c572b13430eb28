// Package setup implements the deployment bootstrap behind `facecheck setup`:
// credential materialization, best-effort system package installation, encoder
// sidecar dependency installation, and post-install verification.
package setup

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

const defaultCommandTimeout = 10 * time.Minute

// RunResult captures the outcome of one external command.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Success reports whether the command ran and exited zero.
func (r *RunResult) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// CommandRunner abstracts process execution so tests can substitute a fake
// package manager.
type CommandRunner interface {
	// LookPath reports the path of a binary, or an error when absent.
	LookPath(name string) (string, error)
	// Run executes a command and captures its output.
	Run(ctx context.Context, name string, args ...string) *RunResult
}

// ExecRunner is the CommandRunner used in production, backed by os/exec.
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner creates an ExecRunner with the default timeout.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Timeout: defaultCommandTimeout}
}

// LookPath implements CommandRunner.
func (e *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run implements CommandRunner.
func (e *ExecRunner) Run(ctx context.Context, name string, args ...string) *RunResult {
	timeout := e.Timeout
	if timeout == 0 {
		timeout = defaultCommandTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	result := &RunResult{}
	err := cmd.Run()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		result.Err = err
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
	}
	return result
}
