package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrNotFound reports that the program is not installed or not on PATH.
	ErrNotFound = errors.New("command not found")
	// ErrTimeout reports that the program did not finish within its timeout.
	ErrTimeout = errors.New("command timed out")
	// ErrPermission reports that the program could not be started for lack of rights.
	ErrPermission = errors.New("permission denied")
)

// Result captures what a finished program produced.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns the trimmed stderr text, or stdout when stderr is empty.
func (r Result) Output() string {
	if msg := strings.TrimSpace(r.Stderr); msg != "" {
		return msg
	}
	return strings.TrimSpace(r.Stdout)
}

// Runner executes external programs.
//
// Run returns a nil error whenever the program ran to completion, including
// non-zero exits, which are reported through Result.ExitCode. An error means
// the program could not be started or was killed by the timeout.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

// NewRunner returns the default Runner backed by os/exec.
func NewRunner() Runner {
	return ExecRunner{}
}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return result, nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		result.ExitCode = -1
		return result, fmt.Errorf("%w: %s after %s", ErrTimeout, name, timeout)
	}
	if ctx.Err() != nil {
		result.ExitCode = -1
		return result, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	result.ExitCode = -1
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return result, fmt.Errorf("%w: %s: %w", ErrNotFound, name, err)
	case errors.Is(err, fs.ErrPermission):
		return result, fmt.Errorf("%w: %s: %w", ErrPermission, name, err)
	default:
		return result, fmt.Errorf("run %s: %w", name, err)
	}
}
