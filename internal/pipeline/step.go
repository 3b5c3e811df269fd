package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/riboseinc/gemstrap/internal/project"
)

// Action performs one step against the project. The string is an optional
// message for the checklist line.
type Action func(ctx context.Context, pc project.Context) (string, error)

// Checkpoint describes the commit that follows a successful step.
type Checkpoint struct {
	Message string
	Paths   []string // relative to the project root
}

// Step is one entry of a recipe.
type Step struct {
	Label      string
	Action     Action
	Checkpoint *Checkpoint   // nil when the step is not committed
	Timeout    time.Duration // zero falls back to the pipeline default
}

// State is the lifecycle of a Pipeline.
type State int

const (
	StateInit State = iota
	StateRunning
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// StepError is the terminal error of an aborted run.
type StepError struct {
	Label string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Label, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// StepLabel returns the label of the failing step.
func (e *StepError) StepLabel() string { return e.Label }
