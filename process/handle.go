package process

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Handle tracks a long-running subprocess. Completion is observed through
// Done(); ExitCode and Err are valid only after Done() is closed.
type Handle interface {
	// Done is closed once the process has exited and its output is flushed.
	Done() <-chan struct{}
	// ExitCode returns the process exit code, -1 if it was killed.
	ExitCode() int
	// Err returns the wait error, nil on a clean exit.
	Err() error
	// Terminate sends SIGTERM to the process group.
	Terminate() error
}

// Starter launches a long-running subprocess. The real implementation is
// DefaultStarter; tests substitute a fake.
type Starter interface {
	Start(ctx context.Context, cmd Command, output io.Writer) (Handle, error)
}

// StarterFunc adapts a function to the Starter interface.
type StarterFunc func(ctx context.Context, cmd Command, output io.Writer) (Handle, error)

func (f StarterFunc) Start(ctx context.Context, cmd Command, output io.Writer) (Handle, error) {
	return f(ctx, cmd, output)
}

// DefaultStarter returns a Starter backed by Start.
func DefaultStarter() Starter {
	return StarterFunc(Start)
}

type handle struct {
	pid  int
	done chan struct{}

	mu       sync.Mutex
	exitCode int
	err      error
}

func (h *handle) Done() <-chan struct{} { return h.done }

func (h *handle) ExitCode() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

func (h *handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *handle) Terminate() error {
	return syscall.Kill(-h.pid, syscall.SIGTERM)
}

// Start launches a subprocess without waiting for it to complete. Stdout and
// stderr are streamed to output (may be nil to discard). The returned Handle's
// Done channel closes once the process exits.
func Start(ctx context.Context, cmd Command, output io.Writer) (Handle, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}

	gracePeriod := cmd.GracePeriod
	if gracePeriod == 0 {
		gracePeriod = 5 * time.Second
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // dynamic args are the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}
	if output != nil {
		c.Stdout = output
		c.Stderr = output
	}

	// Process group so Terminate reaches the whole tree.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = gracePeriod

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("process: start %s: %w", cmd.Binary, err)
	}

	h := &handle{pid: c.Process.Pid, done: make(chan struct{})}

	go func() {
		err := c.Wait()
		h.mu.Lock()
		h.exitCode = c.ProcessState.ExitCode()
		h.err = err
		h.mu.Unlock()
		close(h.done)
	}()

	return h, nil
}
