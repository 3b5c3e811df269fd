package shell

import (
	"context"
	"strings"
	"sync"
)

// Call records one invocation made through a FakeRunner.
type Call struct {
	Name string
	Args []string
	Dir  string
}

// String renders the call as a command line.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// FakeRunner records calls and answers them from a handler. It is exported
// so tests in other packages can drive collaborators without real binaries.
type FakeRunner struct {
	mu    sync.Mutex
	calls []Call

	// Handler decides the result of each call. A nil handler succeeds with
	// empty output.
	Handler func(c Call) (Result, error)
}

// Run records the call and delegates to Handler.
func (f *FakeRunner) Run(_ context.Context, name string, args []string, opts Opts) (Result, error) {
	c := Call{Name: name, Args: append([]string(nil), args...), Dir: opts.Dir}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if f.Handler == nil {
		return Result{}, nil
	}
	return f.Handler(c)
}

// Calls returns the recorded calls in order.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CommandLines returns every recorded call rendered with Call.String.
func (f *FakeRunner) CommandLines() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}
