package sandbox

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"codeforge/internal/logging"
)

// Event is one line of interpreter output.
type Event struct {
	Stream string // "stdout" or "stderr"
	Line   string
}

// Session is an interactive interpreter process. Output lines are
// published on Events; the channel closes when the process exits.
type Session struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	events chan Event
	group  *errgroup.Group

	mu      sync.Mutex
	stopped bool
}

// StartSession spawns the interpreter in interactive, unbuffered mode.
func (r *Runner) StartSession(ctx context.Context) (*Session, error) {
	cmd := exec.CommandContext(ctx, r.binary, r.sessionArgs...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", r.binary, err)
	}
	logging.Sandbox("Interactive session started: %s (pid %d)", r.binary, cmd.Process.Pid)

	s := &Session{
		cmd:    cmd,
		stdin:  stdin,
		events: make(chan Event, 64),
	}

	g := &errgroup.Group{}
	g.Go(func() error { return s.pump("stdout", stdout) })
	g.Go(func() error { return s.pump("stderr", stderr) })
	s.group = g

	// Close the event channel once both pumps drain and the process exits.
	go func() {
		_ = g.Wait()
		_ = cmd.Wait()
		close(s.events)
	}()

	return s, nil
}

// pump forwards lines from one stream to the event channel.
func (s *Session) pump(stream string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.events <- Event{Stream: stream, Line: scanner.Text()}
	}
	return scanner.Err()
}

// Events returns the output stream. Closed when the session ends.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Send writes one command line to the interpreter.
func (s *Session) Send(command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("session stopped")
	}
	if _, err := io.WriteString(s.stdin, command+"\n"); err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}
	return nil
}

// Stop closes stdin and waits for the interpreter to exit, killing it
// after a grace period.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	_ = s.stdin.Close()

	done := make(chan struct{})
	go func() {
		for range s.events {
			// Drain remaining output so the pumps can finish.
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logging.Sandbox("Session did not exit after stdin close, killing pid %d", s.cmd.Process.Pid)
		_ = s.cmd.Process.Kill()
		<-done
	}
	return nil
}
