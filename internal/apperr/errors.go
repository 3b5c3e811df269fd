package apperr

import (
	"errors"
	"fmt"
	"io"
)

// Kind classifies an error by where it was detected.
type Kind string

const (
	// KindUsage is a bad invocation. No project is created.
	KindUsage Kind = "usage"
	// KindGenerator means the initial scaffold could not be produced.
	KindGenerator Kind = "generator"
	// KindCollaborator means an external tool or service failed.
	KindCollaborator Kind = "collaborator"
	// KindPatch means a mandatory text rule matched nothing.
	KindPatch Kind = "patch"
	// KindParse means a structured document could not be loaded or validated.
	KindParse Kind = "parse"
	// KindTimeout means a step exceeded its deadline.
	KindTimeout Kind = "timeout"
)

// Error is the standard error type carried through the pipeline.
type Error struct {
	Kind    Kind
	Msg     string
	Cause   error
	Details map[string]string
}

// Error returns "kind: message" followed by the cause, if any.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with no cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping cause.
func Wrap(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// WrapWithDetails creates an Error wrapping cause with structured context.
// The details map is copied.
func WrapWithDetails(kind Kind, msg string, cause error, details map[string]string) error {
	return &Error{Kind: kind, Msg: msg, Cause: cause, Details: copyDetails(details)}
}

// Usage is shorthand for a KindUsage error.
func Usage(format string, args ...any) error {
	return Newf(KindUsage, format, args...)
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ExitCode returns 0 for nil and 1 for every error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// Print writes err to w as
//
//	error[kind]: message
//	  cause: ...
//	  step: ...
//
// The step line comes from any error in the chain with a StepLabel method,
// falling back to a "step" detail.
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	step := ""
	var sl interface{ StepLabel() string }
	if errors.As(err, &sl) {
		step = sl.StepLabel()
	}

	var ae *Error
	if !errors.As(err, &ae) {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "error[%s]: %s\n", ae.Kind, ae.Msg)
	if ae.Cause != nil {
		fmt.Fprintf(w, "  cause: %v\n", ae.Cause)
	}
	if s, ok := ae.Details["step"]; ok && step == "" {
		step = s
	}
	if step != "" {
		fmt.Fprintf(w, "  step: %s\n", step)
	}
}

func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}
