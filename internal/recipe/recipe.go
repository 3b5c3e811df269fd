package recipe

import (
	"context"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"

	"github.com/riboseinc/gemstrap/internal/collab"
	"github.com/riboseinc/gemstrap/internal/patch"
	"github.com/riboseinc/gemstrap/internal/pipeline"
	"github.com/riboseinc/gemstrap/internal/project"
)

// Step labels.
const (
	LabelReset        = "Unstage generated files"
	LabelLicense      = "Update license"
	LabelGemspec      = "Update gemspec metadata"
	LabelReadme       = "Update README"
	LabelRubocop      = "Install RuboCop config"
	LabelEditorconfig = "Install EditorConfig"
	LabelTravis       = "Configure Travis CI"
	LabelCoverage     = "Install code coverage"
	LabelDocs         = "Convert docs to AsciiDoc"
	LabelDependencies = "Install dependencies"
	LabelLint         = "Autofix lint offenses"
)

// Defaults for Settings.
var (
	DefaultRubyVersions      = []string{"2.6", "2.5", "2.4"}
	DefaultTargetRubyVersion = 2.4
)

// Resetter unstages everything in the index. *vcs.Git implements it.
type Resetter interface {
	ResetMixed(ctx context.Context) error
}

// Settings are the tunable inputs of the recipe.
type Settings struct {
	RubocopURL        string
	EditorconfigURL   string
	RubyVersions      []string // CI interpreters, besides ruby-head
	TargetRubyVersion float64  // AllCops.TargetRubyVersion default
}

// Deps are the collaborators the steps call.
type Deps struct {
	FS        billy.Filesystem // rooted at the project; nil opens pc.Root()
	Git       Resetter
	Fetcher   collab.Fetcher
	Converter collab.Converter
	Bundler   collab.Bundler
	Linter    collab.Linter
	Logger    zerolog.Logger
	Settings  Settings
}

// gem binds the dependencies to one project.
type gem struct {
	fs      billy.Filesystem
	patcher *patch.Patcher
	deps    Deps
	log     zerolog.Logger
}

// Steps returns the recipe for pc in execution order.
func Steps(pc project.Context, deps Deps) []pipeline.Step {
	if deps.FS == nil {
		deps.FS = osfs.New(pc.Root())
	}
	if len(deps.Settings.RubyVersions) == 0 {
		deps.Settings.RubyVersions = DefaultRubyVersions
	}
	if deps.Settings.TargetRubyVersion == 0 {
		deps.Settings.TargetRubyVersion = DefaultTargetRubyVersion
	}

	g := &gem{
		fs:      deps.FS,
		patcher: patch.New(deps.FS, Fields(pc), deps.Logger),
		deps:    deps,
		log:     deps.Logger,
	}
	gemspec := pc.Name() + ".gemspec"
	// These checkpoints stage whatever file names their actions settle on.
	readme := &pipeline.Checkpoint{Message: "Update README"}
	coverage := &pipeline.Checkpoint{Message: "Add code coverage"}
	docs := &pipeline.Checkpoint{Message: "Convert documentation to AsciiDoc"}

	return []pipeline.Step{
		{Label: LabelReset, Action: g.reset},
		{
			Label:      LabelLicense,
			Action:     g.license,
			Checkpoint: &pipeline.Checkpoint{Message: "Update license", Paths: []string{licenseFile}},
		},
		{
			Label:      LabelGemspec,
			Action:     g.gemspec,
			Checkpoint: &pipeline.Checkpoint{Message: "Update gemspec metadata", Paths: []string{gemspec}},
		},
		{
			Label: LabelReadme,
			Action: func(context.Context, project.Context) (string, error) {
				name, err := g.readme()
				readme.Paths = []string{name}
				return "", err
			},
			Checkpoint: readme,
		},
		{
			Label:      LabelRubocop,
			Action:     g.rubocop,
			Checkpoint: &pipeline.Checkpoint{Message: "Add RuboCop config", Paths: []string{rubocopFile}},
		},
		{
			Label:      LabelEditorconfig,
			Action:     g.editorconfig,
			Checkpoint: &pipeline.Checkpoint{Message: "Add EditorConfig", Paths: []string{editorconfigFile}},
		},
		{
			Label:      LabelTravis,
			Action:     g.travis,
			Checkpoint: &pipeline.Checkpoint{Message: "Configure Travis CI", Paths: []string{travisFile}},
		},
		{
			Label: LabelCoverage,
			Action: func(_ context.Context, pc project.Context) (string, error) {
				paths, err := g.coverage(pc)
				coverage.Paths = paths
				return "", err
			},
			Checkpoint: coverage,
		},
		{
			Label: LabelDocs,
			Action: func(ctx context.Context, pc project.Context) (string, error) {
				removed, created, err := g.deps.Converter.Convert(ctx, pc.Root())
				docs.Paths = append(append([]string(nil), removed...), created...)
				if err != nil {
					return "", err
				}
				return convertedMessage(created), nil
			},
			Checkpoint: docs,
		},
		{
			Label: LabelDependencies,
			Action: func(ctx context.Context, pc project.Context) (string, error) {
				return "", g.deps.Bundler.Install(ctx, pc.Root())
			},
			Checkpoint: &pipeline.Checkpoint{
				Message: "Install dependencies and binstubs",
				Paths:   []string{"Gemfile.lock", "bin"},
			},
		},
		{
			Label:  LabelLint,
			Action: g.lint,
			Checkpoint: &pipeline.Checkpoint{
				Message: "Apply RuboCop autofixes",
				Paths:   []string{"lib", "spec", "bin", gemfileFile, "Rakefile", gemspec},
			},
		},
	}
}

// Fields returns the patch fields for pc: its own fields plus Ruby array
// literals for the gemspec list attributes.
func Fields(pc project.Context) patch.Fields {
	f := patch.Fields(pc.Fields())
	f["authors_list"] = rubyArray(pc.Authors())
	f["email_list"] = rubyArray([]string{pc.Email()})
	return f
}

func rubyArray(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = patch.RubyString(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func (g *gem) reset(ctx context.Context, _ project.Context) (string, error) {
	if g.deps.Git == nil {
		return "skipped", nil
	}
	return "", g.deps.Git.ResetMixed(ctx)
}

// lint applies rubocop autofixes. Offenses that remain make rubocop exit
// non-zero; that outcome is logged and the step still passes.
func (g *gem) lint(ctx context.Context, pc project.Context) (string, error) {
	if err := g.deps.Linter.Autofix(ctx, pc.Root()); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		g.log.Warn().Err(err).Msg("rubocop reported remaining offenses")
		return "offenses remain", nil
	}
	return "", nil
}

func convertedMessage(created []string) string {
	switch len(created) {
	case 0:
		return "no Markdown files"
	case 1:
		return created[0]
	default:
		return strings.Join(created, ", ")
	}
}
