// Package sandbox runs user code out of process: one-shot script
// execution and interactive interpreter sessions. Success is derived
// from the process exit code; output is captured with a size cap.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"codeforge/internal/config"
	"codeforge/internal/logging"
)

// Result is the outcome of a one-shot execution.
type Result struct {
	Success  bool          `json:"success"`
	Output   string        `json:"output"`
	Error    string        `json:"error,omitempty"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"-"`
}

// Runner executes code with the configured interpreter binary.
type Runner struct {
	binary      string
	timeout     time.Duration
	maxOutput   int64
	sessionArgs []string
}

// NewRunner creates a runner from configuration.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		binary:      cfg.Sandbox.PythonBinary,
		timeout:     cfg.GetSandboxTimeout(),
		maxOutput:   cfg.Sandbox.MaxOutputBytes,
		sessionArgs: []string{"-i", "-u"},
	}
}

// RunOnce writes code to a temporary script and executes it under the
// configured timeout. A non-zero exit is a completed run reported as
// Success=false with stderr captured; only infrastructure failures
// (missing binary, unwritable temp dir) return an error.
func (r *Runner) RunOnce(ctx context.Context, code string) (*Result, error) {
	timer := logging.StartTimer(logging.CategorySandbox, "RunOnce")
	defer timer.Stop()

	dir, err := os.MkdirTemp("", "forge-run-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, "main.py")
	if err := os.WriteFile(script, []byte(code), 0600); err != nil {
		return nil, fmt.Errorf("failed to write script: %w", err)
	}

	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, r.binary, script)

	var stdoutBuf, stderrBuf bytes.Buffer
	maxOutput := r.maxOutput
	if maxOutput <= 0 {
		maxOutput = 1 << 20
	}
	stdout := &limitedWriter{w: &stdoutBuf, max: maxOutput}
	stderr := &limitedWriter{w: &stderrBuf, max: maxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()
	result := &Result{
		Output:   stdoutBuf.String(),
		Error:    stderrBuf.String(),
		Duration: time.Since(start),
	}

	if runErr != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			result.Success = false
			result.ExitCode = -1
			result.Error = fmt.Sprintf("execution timed out after %s", r.timeout)
			logging.Sandbox("Run killed (timeout %s)", r.timeout)
			return result, nil
		}
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			result.Success = false
			result.ExitCode = exitErr.ExitCode()
			logging.SandboxDebug("Run exited non-zero: %d", result.ExitCode)
			return result, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", r.binary, runErr)
	}

	result.Success = true
	result.ExitCode = 0
	logging.SandboxDebug("Run completed: %d output bytes in %s", len(result.Output), result.Duration)
	return result, nil
}

// limitedWriter caps total bytes written, silently discarding overflow.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.written >= lw.max {
		lw.truncated = true
		return n, nil
	}
	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err
	}
	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
