package testsupport

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"shuttle/internal/command"
)

// Call records one invocation seen by FakeRunner.
type Call struct {
	Name    string
	Args    []string
	Timeout time.Duration
}

type response struct {
	result command.Result
	err    error
}

// FakeRunner is a scripted command.Runner. Programs without a scripted
// response fail with command.ErrNotFound, like a host missing the tool.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string][]response
	calls     []Call
}

// NewFakeRunner returns a runner with no scripted programs.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string][]response)}
}

// On queues a response for name. Queued responses are consumed in order and
// the last one repeats.
func (f *FakeRunner) On(name string, result command.Result, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[name] = append(f.responses[name], response{result: result, err: err})
	return f
}

// OnStdout queues a successful run printing stdout.
func (f *FakeRunner) OnStdout(name, stdout string) *FakeRunner {
	return f.On(name, command.Result{Stdout: stdout}, nil)
}

// OnExit queues a run exiting with code and stderr.
func (f *FakeRunner) OnExit(name string, code int, stderr string) *FakeRunner {
	return f.On(name, command.Result{Stderr: stderr, ExitCode: code}, nil)
}

// Run implements command.Runner.
func (f *FakeRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (command.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Name: name, Args: slices.Clone(args), Timeout: timeout})

	queue := f.responses[name]
	if len(queue) == 0 {
		return command.Result{ExitCode: -1}, fmt.Errorf("%w: %s", command.ErrNotFound, name)
	}
	next := queue[0]
	if len(queue) > 1 {
		f.responses[name] = queue[1:]
	}
	return next.result, next.err
}

// Calls returns every recorded invocation.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsTo returns the invocations of name.
func (f *FakeRunner) CallsTo(name string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Programs lists invoked program names in call order.
func (f *FakeRunner) Programs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.calls))
	for i, c := range f.calls {
		names[i] = c.Name
	}
	return names
}
