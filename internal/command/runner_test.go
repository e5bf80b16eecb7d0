package command

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestExecRunnerCapturesOutput(t *testing.T) {
	skipOnWindows(t)

	result, err := NewRunner().Run(context.Background(), 5*time.Second, "sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("unexpected exit code %d", result.ExitCode)
	}
	if result.Stdout != "out\n" {
		t.Fatalf("unexpected stdout %q", result.Stdout)
	}
	if result.Output() != "err" {
		t.Fatalf("Output should prefer stderr, got %q", result.Output())
	}
}

func TestExecRunnerReportsExitCodeWithoutError(t *testing.T) {
	skipOnWindows(t)

	result, err := NewRunner().Run(context.Background(), 5*time.Second, "sh", "-c", "echo 'mount: busy' >&2; exit 32")
	if err != nil {
		t.Fatalf("non-zero exit must not be an error, got %v", err)
	}
	if result.ExitCode != 32 {
		t.Fatalf("expected exit code 32, got %d", result.ExitCode)
	}
	if result.Output() != "mount: busy" {
		t.Fatalf("unexpected output %q", result.Output())
	}
}

func TestExecRunnerTimeout(t *testing.T) {
	skipOnWindows(t)

	_, err := NewRunner().Run(context.Background(), 50*time.Millisecond, "sleep", "5")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExecRunnerMissingProgram(t *testing.T) {
	_, err := NewRunner().Run(context.Background(), time.Second, "shuttle-definitely-missing-binary")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResultOutputFallsBackToStdout(t *testing.T) {
	r := Result{Stdout: "  only stdout \n"}
	if got := r.Output(); got != "only stdout" {
		t.Fatalf("Output() = %q", got)
	}
}
