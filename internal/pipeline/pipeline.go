package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/checklist"
	"github.com/riboseinc/gemstrap/internal/project"
)

// ErrAlreadyRun is returned by a second call to Run.
var ErrAlreadyRun = errors.New("pipeline already run")

// Committer records checkpoints. *vcs.Git implements it.
type Committer interface {
	Stage(ctx context.Context, paths []string) error
	Commit(ctx context.Context, message string) (bool, error)
}

// Options configures a Pipeline. Every field is optional.
type Options struct {
	Reporter       *checklist.Reporter
	VCS            Committer // nil disables checkpoints
	Logger         zerolog.Logger
	DefaultTimeout time.Duration
	Tracer         trace.Tracer
	Meter          metric.Meter
}

// Pipeline runs one recipe once.
type Pipeline struct {
	reporter       *checklist.Reporter
	vcs            Committer
	log            zerolog.Logger
	defaultTimeout time.Duration
	tracer         trace.Tracer

	duration metric.Float64Histogram
	failures metric.Int64Counter

	mu        sync.Mutex
	state     State
	completed []string
	failure   error
}

// New creates a Pipeline in StateInit.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		reporter:       opts.Reporter,
		vcs:            opts.VCS,
		log:            opts.Logger,
		defaultTimeout: opts.DefaultTimeout,
		tracer:         opts.Tracer,
	}
	if p.reporter == nil {
		p.reporter = checklist.NewReporter(io.Discard, opts.Logger)
	}
	if p.tracer == nil {
		p.tracer = nooptrace.NewTracerProvider().Tracer("pipeline")
	}
	meter := opts.Meter
	if meter == nil {
		meter = noopmetric.NewMeterProvider().Meter("pipeline")
	}

	var err error
	p.duration, err = meter.Float64Histogram("gemstrap.step.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of each scaffolding step"))
	if err != nil {
		p.log.Debug().Err(err).Msg("step duration histogram unavailable")
		p.duration, _ = noopmetric.NewMeterProvider().Meter("pipeline").Float64Histogram("gemstrap.step.duration")
	}
	p.failures, err = meter.Int64Counter("gemstrap.step.failures",
		metric.WithDescription("Steps that aborted a run"))
	if err != nil {
		p.log.Debug().Err(err).Msg("step failure counter unavailable")
		p.failures, _ = noopmetric.NewMeterProvider().Meter("pipeline").Int64Counter("gemstrap.step.failures")
	}
	return p
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Failure returns the terminal error of an aborted run, or nil.
func (p *Pipeline) Failure() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failure
}

// Completed returns the labels of the steps that finished, in order.
func (p *Pipeline) Completed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.completed...)
}

// Run executes steps in order against pc. It stops at the first failing
// step and returns the labels completed before it together with a
// *StepError. A Pipeline runs once; later calls return ErrAlreadyRun.
func (p *Pipeline) Run(ctx context.Context, pc project.Context, steps []Step) ([]string, error) {
	p.mu.Lock()
	if p.state != StateInit {
		p.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	p.state = StateRunning
	p.mu.Unlock()

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("gem.name", pc.Name()),
			attribute.Int("pipeline.steps", len(steps)),
		))
	defer span.End()

	p.log.Info().Str("gem", pc.Name()).Str("root", pc.Root()).Int("steps", len(steps)).Msg("pipeline started")
	start := time.Now()

	for _, step := range steps {
		if err := p.runStep(ctx, pc, step); err != nil {
			stepErr := &StepError{Label: step.Label, Err: err}
			p.finish(StateAborted, stepErr)
			span.RecordError(stepErr)
			span.SetStatus(codes.Error, step.Label)
			p.log.Error().Err(err).Str("step", step.Label).Msg("pipeline aborted")
			return p.Completed(), stepErr
		}
		p.mu.Lock()
		p.completed = append(p.completed, step.Label)
		p.mu.Unlock()
	}

	p.finish(StateCompleted, nil)
	p.log.Info().Dur("duration", time.Since(start)).Msg("pipeline completed")
	return p.Completed(), nil
}

func (p *Pipeline) finish(state State, failure error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
	p.failure = failure
}

func (p *Pipeline) runStep(ctx context.Context, pc project.Context, step Step) error {
	timeout := step.Timeout
	if timeout == 0 {
		timeout = p.defaultTimeout
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.step",
		trace.WithAttributes(attribute.String("step.label", step.Label)))
	defer span.End()

	log := p.log.With().Str("step", step.Label).Logger()
	log.Debug().Msg("step started")

	out := checklist.Run(ctx, p.reporter, checklist.Step{
		Label:   step.Label,
		Timeout: timeout,
		Action: func(ctx context.Context) (string, error) {
			msg, err := step.Action(ctx, pc)
			if err != nil {
				return "", err
			}
			if err := p.checkpoint(ctx, log, step.Checkpoint); err != nil {
				return "", err
			}
			return msg, nil
		},
	})

	label := attribute.String("step.label", step.Label)
	p.duration.Record(ctx, out.Duration.Seconds(), metric.WithAttributes(label))
	if out.Err != nil {
		p.failures.Add(ctx, 1, metric.WithAttributes(label,
			attribute.String("error.kind", string(apperr.KindOf(out.Err)))))
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Err.Error())
		return out.Err
	}
	log.Debug().Dur("duration", out.Duration).Msg("step finished")
	return nil
}

// checkpoint stages and commits the step's paths. Staging failures abort
// the step; an empty commit is skipped and a failed commit is only logged.
func (p *Pipeline) checkpoint(ctx context.Context, log zerolog.Logger, cp *Checkpoint) error {
	if cp == nil || p.vcs == nil {
		return nil
	}
	if err := p.vcs.Stage(ctx, cp.Paths); err != nil {
		return err
	}
	committed, err := p.vcs.Commit(ctx, cp.Message)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("message", cp.Message).Msg("checkpoint commit failed")
	case !committed:
		log.Info().Str("message", cp.Message).Msg("nothing to commit")
	default:
		log.Debug().Str("message", cp.Message).Msg("checkpoint recorded")
	}
	return nil
}
