package recipe

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/configdoc"
	"github.com/riboseinc/gemstrap/internal/pipeline"
	"github.com/riboseinc/gemstrap/internal/project"
	"github.com/riboseinc/gemstrap/internal/scaffold"
)

const (
	rubocopURL      = "https://example.test/rubocop.yml"
	editorconfigURL = "https://example.test/editorconfig"
	rubocopBody     = "inherit_mode:\n  merge:\n    - Exclude\nStyle/StringLiterals:\n  EnforcedStyle: double_quotes\n"
	editorconfig    = "root = true\n\n[*]\nindent_style = space\nindent_size = 2\n"
)

type fakeFetcher struct {
	bodies map[string]string
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	body, ok := f.bodies[url]
	if !ok {
		return nil, apperr.Newf(apperr.KindCollaborator, "GET %s: 404 Not Found", url)
	}
	return []byte(body), nil
}

// fakeConverter renames the top-level Markdown files to *.adoc inside fs.
type fakeConverter struct {
	fs billy.Filesystem
}

func (c *fakeConverter) Convert(_ context.Context, _ string) ([]string, []string, error) {
	var removed, created []string
	for _, md := range []string{"CHANGELOG.md", "README.md"} {
		if _, err := c.fs.Stat(md); err != nil {
			continue
		}
		adoc := strings.TrimSuffix(md, ".md") + ".adoc"
		if err := c.fs.Rename(md, adoc); err != nil {
			return nil, nil, err
		}
		removed = append(removed, md)
		created = append(created, adoc)
	}
	return removed, created, nil
}

type recorder struct {
	calls []string
	err   error
}

func (r *recorder) ResetMixed(context.Context) error {
	r.calls = append(r.calls, "reset")
	return r.err
}

func (r *recorder) Install(context.Context, string) error {
	r.calls = append(r.calls, "install")
	return r.err
}

func (r *recorder) Autofix(context.Context, string) error {
	r.calls = append(r.calls, "autofix")
	return r.err
}

type commits struct {
	messages []string
	staged   [][]string
}

func (c *commits) Stage(_ context.Context, paths []string) error {
	c.staged = append(c.staged, append([]string(nil), paths...))
	return nil
}

func (c *commits) Commit(_ context.Context, message string) (bool, error) {
	c.messages = append(c.messages, message)
	return true, nil
}

type harness struct {
	pc       project.Context
	fs       billy.Filesystem
	fetcher  *fakeFetcher
	git      *recorder
	bundler  *recorder
	linter   *recorder
	commits  *commits
	pipeline *pipeline.Pipeline
}

func widgets(t *testing.T, root string) project.Context {
	t.Helper()
	pc, err := project.New(project.Params{
		Name:        "widgets",
		Authors:     []string{"Ribose Inc."},
		Email:       "open.source@ribose.com",
		Org:         "riboseinc",
		Homepage:    "https://github.com/riboseinc/widgets",
		Summary:     "Widgets gem",
		Description: "Widgets gem",
		Root:        root,
		Now:         func() time.Time { return time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return pc
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	pc := widgets(t, "/work/widgets")

	fs := memfs.New()
	files, err := scaffold.Render(scaffold.NewData(pc))
	require.NoError(t, err)
	for _, f := range files {
		require.NoError(t, util.WriteFile(fs, f.Path, f.Content, f.Mode))
	}

	h := &harness{
		pc: pc,
		fs: fs,
		fetcher: &fakeFetcher{bodies: map[string]string{
			rubocopURL:      rubocopBody,
			editorconfigURL: editorconfig,
		}},
		git:     &recorder{},
		bundler: &recorder{},
		linter:  &recorder{},
		commits: &commits{},
	}
	h.reset()
	return h
}

func (h *harness) reset() {
	h.commits = &commits{}
	h.pipeline = pipeline.New(pipeline.Options{VCS: h.commits})
}

func (h *harness) steps() []pipeline.Step {
	return Steps(h.pc, Deps{
		FS:        h.fs,
		Git:       h.git,
		Fetcher:   h.fetcher,
		Converter: &fakeConverter{fs: h.fs},
		Bundler:   h.bundler,
		Linter:    h.linter,
		Logger:    zerolog.Nop(),
		Settings: Settings{
			RubocopURL:      rubocopURL,
			EditorconfigURL: editorconfigURL,
		},
	})
}

func (h *harness) run(t *testing.T) ([]string, error) {
	t.Helper()
	return h.pipeline.Run(context.Background(), h.pc, h.steps())
}

func (h *harness) read(t *testing.T, name string) string {
	t.Helper()
	data, err := util.ReadFile(h.fs, name)
	require.NoError(t, err)
	return string(data)
}

func labels(steps []pipeline.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Label
	}
	return out
}

func TestWidgetsDefaultScenario(t *testing.T) {
	h := newHarness(t)

	done, err := h.run(t)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateCompleted, h.pipeline.State())
	assert.Equal(t, labels(h.steps()), done)

	readme := h.read(t, "README.adoc")
	assert.Contains(t, readme, "https://github.com/riboseinc/widgets")
	assert.NotContains(t, readme, "[USERNAME]")
	assert.Contains(t, readme, "\nWidgets gem\n")

	gemspec := h.read(t, "widgets.gemspec")
	assert.Contains(t, gemspec, `spec.homepage      = "https://github.com/riboseinc/widgets"`)
	assert.Contains(t, gemspec, `spec.authors       = ["Ribose Inc."]`)
	assert.Contains(t, gemspec, `spec.email         = ["open.source@ribose.com"]`)
	assert.Contains(t, gemspec, `spec.summary       = "Widgets gem"`)
	assert.Contains(t, gemspec, `spec.metadata["source_code_uri"] = spec.homepage`)
	assert.Contains(t, gemspec, "  spec.add_development_dependency \"rspec\", \"~> 3.0\"\n  spec.add_development_dependency \"simplecov\"\n")
	assert.NotContains(t, gemspec, "allowed_push_host")
	assert.NotContains(t, gemspec, "Prevent pushing")
	assert.NotContains(t, gemspec, "changelog_uri")
	assert.NotContains(t, gemspec, "TODO")
	assert.Contains(t, gemspec, "  if spec.respond_to?(:metadata)\n    spec.metadata[\"homepage_uri\"] = spec.homepage\n")

	license := h.read(t, "LICENSE.txt")
	assert.Contains(t, license, "Copyright (c) 2019 Ribose Inc.\n")
	assert.NotContains(t, license, "TODO")

	assert.True(t, strings.HasPrefix(h.read(t, "spec/spec_helper.rb"), "require \"simplecov\"\nSimpleCov.start\n\nrequire \"bundler/setup\"\n"))
	assert.Contains(t, h.read(t, ".gitignore"), "\n/coverage/\n")
	assert.Equal(t, editorconfig, h.read(t, ".editorconfig"))

	rubocop, err := configdoc.Load(h.fs, ".rubocop.yml")
	require.NoError(t, err)
	target, ok := rubocop.Get("AllCops.TargetRubyVersion")
	require.True(t, ok)
	assert.Equal(t, 2.4, target)

	travis, err := configdoc.Load(h.fs, ".travis.yml")
	require.NoError(t, err)
	rvm, err := travis.Strings("rvm")
	require.NoError(t, err)
	assert.Equal(t, []string{"2.4", "2.5", "2.6"}, rvm)
	failures, _ := travis.Get("matrix.allow_failures")
	assert.Equal(t, []any{map[string]any{"rvm": "ruby-head"}}, failures)
	include, _ := travis.Get("matrix.include")
	assert.Equal(t, []any{map[string]any{"rvm": "ruby-head"}}, include)
	_, hasSudo := travis.Get("sudo")
	assert.False(t, hasSudo)

	assert.Equal(t, []string{"reset"}, h.git.calls)
	assert.Equal(t, []string{"install"}, h.bundler.calls)
	assert.Equal(t, []string{"autofix"}, h.linter.calls)
	assert.Equal(t, []string{
		"Update license",
		"Update gemspec metadata",
		"Update README",
		"Add RuboCop config",
		"Add EditorConfig",
		"Configure Travis CI",
		"Add code coverage",
		"Convert documentation to AsciiDoc",
		"Install dependencies and binstubs",
		"Apply RuboCop autofixes",
	}, h.commits.messages)
	assert.Contains(t, h.commits.staged, []string{"README.md", "README.adoc"})
}

func TestFetchFailureAbortsAtRubocop(t *testing.T) {
	h := newHarness(t)
	delete(h.fetcher.bodies, rubocopURL)
	helperBefore := h.read(t, "spec/spec_helper.rb")

	done, err := h.run(t)

	require.Error(t, err)
	assert.Equal(t, pipeline.StateAborted, h.pipeline.State())
	var stepErr *pipeline.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, LabelRubocop, stepErr.Label)
	assert.True(t, apperr.Is(err, apperr.KindCollaborator))

	assert.Equal(t, []string{LabelReset, LabelLicense, LabelGemspec, LabelReadme}, done)
	assert.Equal(t, helperBefore, h.read(t, "spec/spec_helper.rb"), "coverage step must not run")
	assert.Equal(t, []string{rubocopURL}, h.fetcher.calls)
	assert.Empty(t, h.bundler.calls)
	assert.Empty(t, h.linter.calls)
	_, statErr := h.fs.Stat(".rubocop.yml")
	assert.Error(t, statErr)
}

func TestRecipeIsIdempotent(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t)
	require.NoError(t, err)

	snapshot := map[string]string{}
	for _, name := range []string{
		"LICENSE.txt", "widgets.gemspec", "README.adoc", ".rubocop.yml",
		".travis.yml", "spec/spec_helper.rb", ".gitignore",
	} {
		snapshot[name] = h.read(t, name)
	}

	h.reset()
	_, err = h.run(t)
	require.NoError(t, err)

	for name, want := range snapshot {
		assert.Equal(t, want, h.read(t, name), name)
	}
}

func TestLintFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.linter.err = apperr.New(apperr.KindCollaborator, "rubocop -a failed: exit status 1")

	done, err := h.run(t)
	require.NoError(t, err)
	assert.Contains(t, done, LabelLint)
}

func TestBundlerFailureAborts(t *testing.T) {
	h := newHarness(t)
	h.bundler.err = apperr.New(apperr.KindCollaborator, "bundle install failed")

	done, err := h.run(t)
	require.Error(t, err)
	assert.NotContains(t, done, LabelDependencies)
	assert.Empty(t, h.linter.calls)
}

func TestMissingCopyrightIsPatchError(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, util.WriteFile(h.fs, "LICENSE.txt", []byte("All rights reserved.\n"), 0o644))

	done, err := h.run(t)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPatch))
	assert.Equal(t, []string{LabelReset}, done)
	assert.Equal(t, "All rights reserved.\n", h.read(t, "LICENSE.txt"))
}

func TestInvalidTravisIsParseError(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, util.WriteFile(h.fs, ".travis.yml", []byte("language: ruby\nmatrix: nightly\n"), 0o644))

	_, err := h.run(t)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindParse))
	var stepErr *pipeline.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, LabelTravis, stepErr.Label)
}

func TestMetadataIsEscapedForRuby(t *testing.T) {
	h := newHarness(t)
	pc, err := project.New(project.Params{
		Name:        "widgets",
		Authors:     []string{`Jane "JD" Doe`, "Ribose Inc."},
		Email:       "jd@example.com",
		Homepage:    "https://example.com/widgets#readme",
		Summary:     `Costs $1 and #{rm -rf}`,
		Description: "x",
		Root:        "/work/widgets",
		Now:         func() time.Time { return time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	h.pc = pc

	_, err = h.run(t)
	require.NoError(t, err)

	gemspec := h.read(t, "widgets.gemspec")
	assert.Contains(t, gemspec, `spec.authors       = ["Jane \"JD\" Doe", "Ribose Inc."]`)
	assert.Contains(t, gemspec, `spec.summary       = "Costs $1 and \#{rm -rf}"`)
	assert.Contains(t, gemspec, `spec.homepage      = "https://example.com/widgets\#readme"`)
	assert.Contains(t, h.read(t, "LICENSE.txt"), `Copyright (c) 2019 Jane "JD" Doe, Ribose Inc.`)
}

func TestMissingTravisFileIsCreated(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.fs.Remove(".travis.yml"))

	_, err := h.run(t)
	require.NoError(t, err)

	travis, err := configdoc.Load(h.fs, ".travis.yml")
	require.NoError(t, err)
	language, _ := travis.Get("language")
	assert.Equal(t, "ruby", language)
	rvm, err := travis.Strings("rvm")
	require.NoError(t, err)
	assert.Equal(t, []string{"2.4", "2.5", "2.6"}, rvm)
	failures, _ := travis.Get("matrix.allow_failures")
	assert.Equal(t, []any{map[string]any{"rvm": "ruby-head"}}, failures)
	assert.Contains(t, h.commits.messages, "Configure Travis CI")
	assert.Contains(t, h.commits.staged, []string{".travis.yml"})
}

// modernGemfile is what newer bundlers generate: rspec sits in the Gemfile.
const modernGemfile = `source "https://rubygems.org"

# Specify your gem's dependencies in widgets.gemspec
gemspec

gem "rake", "~> 13.0"

gem "rspec", "~> 3.0"
`

func TestSimplecovGoesToGemfileWithRspec(t *testing.T) {
	h := newHarness(t)
	gemspec := strings.Replace(h.read(t, "widgets.gemspec"), "  spec.add_development_dependency \"rspec\", \"~> 3.0\"\n", "", 1)
	require.NoError(t, util.WriteFile(h.fs, "widgets.gemspec", []byte(gemspec), 0o644))
	require.NoError(t, util.WriteFile(h.fs, "Gemfile", []byte(modernGemfile), 0o644))

	_, err := h.run(t)
	require.NoError(t, err)

	gemfile := h.read(t, "Gemfile")
	assert.Contains(t, gemfile, "gem \"rspec\", \"~> 3.0\"\ngem \"simplecov\"\n")
	assert.NotContains(t, h.read(t, "widgets.gemspec"), "simplecov")
	assert.Contains(t, h.commits.staged, []string{"Gemfile", "spec/spec_helper.rb", ".gitignore"})

	h.reset()
	_, err = h.run(t)
	require.NoError(t, err)
	assert.Equal(t, gemfile, h.read(t, "Gemfile"))
}

func TestSimplecovAppendedToGemfileWithoutRspec(t *testing.T) {
	h := newHarness(t)
	gemspec := strings.Replace(h.read(t, "widgets.gemspec"), "  spec.add_development_dependency \"rspec\", \"~> 3.0\"\n", "", 1)
	require.NoError(t, util.WriteFile(h.fs, "widgets.gemspec", []byte(gemspec), 0o644))

	_, err := h.run(t)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(h.read(t, "Gemfile"), "\ngemspec\ngem \"simplecov\"\n"))
}
