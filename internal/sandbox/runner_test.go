package sandbox

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"
)

// shRunner uses the shell as the interpreter so tests do not depend on a
// Python installation. RunOnce only cares about exit codes and streams.
func shRunner(timeout time.Duration) *Runner {
	return &Runner{
		binary:      "sh",
		timeout:     timeout,
		maxOutput:   1 << 20,
		sessionArgs: []string{"-s"},
	}
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunOnceSuccess(t *testing.T) {
	skipOnWindows(t)
	r := shRunner(5 * time.Second)

	result, err := r.RunOnce(context.Background(), "echo hello")
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if !result.Success {
		t.Errorf("Success = false, stderr: %s", result.Error)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if strings.TrimSpace(result.Output) != "hello" {
		t.Errorf("Output = %q, want hello", result.Output)
	}
}

func TestRunOnceNonZeroExit(t *testing.T) {
	skipOnWindows(t)
	r := shRunner(5 * time.Second)

	result, err := r.RunOnce(context.Background(), "echo oops >&2; exit 3")
	if err != nil {
		t.Fatalf("RunOnce returned infrastructure error: %v", err)
	}
	if result.Success {
		t.Error("Success = true for non-zero exit")
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
	if !strings.Contains(result.Error, "oops") {
		t.Errorf("Error = %q, want stderr captured", result.Error)
	}
}

func TestRunOnceTimeout(t *testing.T) {
	skipOnWindows(t)
	r := shRunner(200 * time.Millisecond)

	result, err := r.RunOnce(context.Background(), "sleep 5")
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if result.Success {
		t.Error("Success = true for timed-out run")
	}
	if !strings.Contains(result.Error, "timed out") {
		t.Errorf("Error = %q, want timeout message", result.Error)
	}
}

func TestRunOnceMissingBinary(t *testing.T) {
	r := &Runner{binary: "definitely-not-a-real-interpreter", timeout: time.Second, maxOutput: 1024}
	if _, err := r.RunOnce(context.Background(), "print(1)"); err == nil {
		t.Fatal("expected infrastructure error for missing binary")
	}
}

func TestLimitedWriterCapsOutput(t *testing.T) {
	var sb strings.Builder
	lw := &limitedWriter{w: &sb, max: 5}

	n, err := lw.Write([]byte("0123456789"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 10 {
		t.Errorf("n = %d, want original length 10", n)
	}
	if sb.String() != "01234" {
		t.Errorf("captured = %q, want 01234", sb.String())
	}
	if !lw.truncated {
		t.Error("truncated flag not set")
	}
}

func TestInteractiveSession(t *testing.T) {
	skipOnWindows(t)
	r := &Runner{binary: "cat", timeout: 5 * time.Second, maxOutput: 1 << 20}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := r.StartSession(ctx)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	if err := s.Send("ping"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case ev := <-s.Events():
		if ev.Line != "ping" {
			t.Errorf("line = %q, want ping", ev.Line)
		}
		if ev.Stream != "stdout" {
			t.Errorf("stream = %q, want stdout", ev.Stream)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for session output")
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := s.Send("after stop"); err == nil {
		t.Error("Send after Stop should fail")
	}
}
