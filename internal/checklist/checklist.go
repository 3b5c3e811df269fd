package checklist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/riboseinc/gemstrap/internal/apperr"
)

// Status markers, padded to the same width.
const (
	MarkOK   = "[ OK ]"
	MarkFail = "[FAIL]"
	MarkMiss = "[MISS]"
	MarkWarn = "[WARN]"
)

// Reporter writes checklist lines and mirrors them to the log.
type Reporter struct {
	mu     sync.Mutex
	w      io.Writer
	log    zerolog.Logger
	indent string
}

// NewReporter returns a Reporter writing to w.
func NewReporter(w io.Writer, log zerolog.Logger) *Reporter {
	return &Reporter{w: w, log: log}
}

// Indented returns a Reporter sharing w whose lines are prefixed with two
// spaces, for grouped output such as doctor sections.
func (r *Reporter) Indented() *Reporter {
	return &Reporter{w: r.w, log: r.log, indent: r.indent + "  "}
}

// OK reports a success. msg may be empty.
func (r *Reporter) OK(label, msg string) {
	r.line(MarkOK, label, msg)
	r.log.Debug().Str("step", label).Msg("ok")
}

// Fail reports a failure.
func (r *Reporter) Fail(label string, err error) {
	r.line(MarkFail, label, err.Error())
	r.log.Debug().Str("step", label).Err(err).Msg("failed")
}

// Miss reports something absent, e.g. a tool not on PATH.
func (r *Reporter) Miss(label, msg string) {
	r.line(MarkMiss, label, msg)
}

// Warn reports a non-fatal problem.
func (r *Reporter) Warn(label, msg string) {
	r.line(MarkWarn, label, msg)
	r.log.Warn().Str("step", label).Msg(msg)
}

func (r *Reporter) line(mark, label, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg == "" {
		fmt.Fprintf(r.w, "%s%s %s\n", r.indent, mark, label)
		return
	}
	fmt.Fprintf(r.w, "%s%s %s: %s\n", r.indent, mark, label, msg)
}

// Action does the work of one step and returns an optional success message.
type Action func(ctx context.Context) (string, error)

// Step is one labelled action with an optional time limit.
type Step struct {
	Label   string
	Timeout time.Duration // zero means no limit
	Action  Action
}

// Outcome is the result of running a Step.
type Outcome struct {
	Label    string
	Message  string
	Err      error
	Duration time.Duration
}

// OK reports whether the step succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Run executes step, reports exactly one line for it and returns the
// outcome. A step that overruns its Timeout fails with a KindTimeout error
// even when the action itself returned nil.
func Run(ctx context.Context, r *Reporter, step Step) Outcome {
	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	start := time.Now()
	msg, err := step.Action(stepCtx)
	out := Outcome{Label: step.Label, Message: msg, Duration: time.Since(start)}

	if step.Timeout > 0 && errors.Is(stepCtx.Err(), context.DeadlineExceeded) && !apperr.Is(err, apperr.KindTimeout) {
		cause := err
		if cause == nil {
			cause = context.DeadlineExceeded
		}
		err = apperr.Wrap(apperr.KindTimeout, fmt.Sprintf("%s exceeded %s", step.Label, step.Timeout), cause)
	}

	if err != nil {
		out.Err = err
		out.Message = ""
		r.Fail(step.Label, err)
		return out
	}
	r.OK(step.Label, msg)
	return out
}
