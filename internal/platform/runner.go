package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// defaultCommandTimeout bounds a shell command when Config leaves it unset.
const defaultCommandTimeout = 5 * time.Second

// waitDelay bounds how long a killed local command may hold its pipes open.
const waitDelay = 100 * time.Millisecond

// Runner executes shell commands on the target system and returns stdout.
// Implementations exist for the local shell, SSH and ADB.
type Runner interface {
	Run(ctx context.Context, cmd string) (string, error)
	Close() error
}

// RunnerFunc adapts a function to the Runner interface. Close is a no-op.
type RunnerFunc func(ctx context.Context, cmd string) (string, error)

// Run calls f(ctx, cmd).
func (f RunnerFunc) Run(ctx context.Context, cmd string) (string, error) {
	return f(ctx, cmd)
}

// Close does nothing.
func (f RunnerFunc) Close() error { return nil }

// localRunner runs commands through the local /bin/sh.
type localRunner struct {
	shell   string
	timeout time.Duration
}

func newLocalRunner(timeout time.Duration) *localRunner {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &localRunner{shell: "/bin/sh", timeout: timeout}
}

func (r *localRunner) Run(ctx context.Context, cmd string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	c := exec.CommandContext(ctx, r.shell, "-c", cmd)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	// Children that inherit the pipes must not outlive the deadline.
	c.WaitDelay = waitDelay

	if err := c.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %v: %s", ErrCommandTimeout, r.timeout, cmd)
		}
		return "", fmt.Errorf("command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (r *localRunner) Close() error { return nil }

// shellEscape escapes a string for safe use in shell commands.
// It wraps the string in single quotes and escapes any single quotes within it.
func shellEscape(s string) string {
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// shellCommand joins a program and its arguments into one shell command,
// quoting every argument.
func shellCommand(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		parts = append(parts, shellEscape(a))
	}
	return strings.Join(parts, " ")
}
