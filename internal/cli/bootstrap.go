package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/checklist"
	"github.com/riboseinc/gemstrap/internal/collab"
	"github.com/riboseinc/gemstrap/internal/config"
	"github.com/riboseinc/gemstrap/internal/logger"
	"github.com/riboseinc/gemstrap/internal/pipeline"
	"github.com/riboseinc/gemstrap/internal/project"
	"github.com/riboseinc/gemstrap/internal/recipe"
	"github.com/riboseinc/gemstrap/internal/scaffold"
	"github.com/riboseinc/gemstrap/internal/shell"
	"github.com/riboseinc/gemstrap/internal/telemetry"
	"github.com/riboseinc/gemstrap/internal/vcs"
)

// LabelGenerate is reported for the skeleton generator, which runs before
// the pipeline.
const LabelGenerate = "Generate gem skeleton"

// fetchTimeout bounds a template download when no step timeout applies.
const fetchTimeout = 30 * time.Second

// env holds the process-facing pieces of a bootstrap run.
type env struct {
	runner  shell.Runner
	fetcher collab.Fetcher
	log     io.Writer
	root    string // empty means ./<name>
	now     func() time.Time
}

func defaultEnv(s config.Settings) env {
	timeout := fetchTimeout
	if s.StepTimeout > 0 && s.StepTimeout < timeout {
		timeout = s.StepTimeout
	}
	return env{
		runner:  shell.NewExecRunner(),
		fetcher: collab.NewHTTPFetcher(timeout, buildVersion),
		log:     os.Stderr,
	}
}

// bootstrap creates gem name and runs the recipe on it, writing the
// checklist to out.
func bootstrap(ctx context.Context, out io.Writer, s config.Settings, name string, e env) error {
	log := logger.New(e.log, s.LogLevel)

	params, err := s.Params(name)
	if err != nil {
		return err
	}
	params.Root = e.root
	params.Now = e.now
	pc, err := project.New(params)
	if err != nil {
		return err
	}
	log = log.With().Str("gem", pc.Name()).Logger()

	tel, err := telemetry.New(ctx, s.Telemetry, buildVersion)
	if err != nil {
		log.Warn().Err(err).Msg("telemetry disabled")
		tel = telemetry.Noop()
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Debug().Err(err).Msg("telemetry shutdown")
		}
	}()

	reporter := checklist.NewReporter(out, log)
	generator := newGenerator(s.Generator, e.runner, log)
	gen := checklist.Run(ctx, reporter, checklist.Step{
		Label:   LabelGenerate,
		Timeout: s.StepTimeout,
		Action: func(ctx context.Context) (string, error) {
			return pc.Root(), generator.Generate(ctx, pc)
		},
	})
	if !gen.OK() {
		return gen.Err
	}

	git := vcs.New(e.runner, pc.Root(), log)
	steps := recipe.Steps(pc, recipe.Deps{
		Git:       git,
		Fetcher:   e.fetcher,
		Converter: collab.NewPandocConverter(e.runner, log),
		Bundler:   collab.NewBundlerTool(e.runner),
		Linter:    collab.NewRubocopLinter(e.runner),
		Logger:    log,
		Settings: recipe.Settings{
			RubocopURL:      s.RubocopURL,
			EditorconfigURL: s.EditorconfigURL,
		},
	})

	p := pipeline.New(pipeline.Options{
		Reporter:       reporter,
		VCS:            git,
		Logger:         log,
		DefaultTimeout: s.StepTimeout,
		Tracer:         tel.Tracer,
		Meter:          tel.Meter,
	})
	completed, err := p.Run(ctx, pc, steps)
	if err != nil {
		log.Error().Strs("completed", completed).Msg("bootstrap aborted")
		return err
	}

	fmt.Fprintf(out, "\n%s is ready in %s (%d steps)\n", pc.Name(), pc.Root(), len(completed)+1)
	return nil
}

func newGenerator(name string, runner shell.Runner, log zerolog.Logger) collab.Generator {
	if name == config.GeneratorTemplate {
		return scaffold.NewTemplateGenerator(runner, log)
	}
	return scaffold.NewBundlerGenerator(runner, log)
}

// errorf is used by subcommands for wrapped usage errors.
func errorf(kind apperr.Kind, err error, format string, args ...any) error {
	return apperr.Wrap(kind, fmt.Sprintf(format, args...), err)
}
