package scaffold

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/project"
	"github.com/riboseinc/gemstrap/internal/shell"
)

func newContext(t *testing.T, name, root string) project.Context {
	t.Helper()
	pc, err := project.New(project.Params{
		Name:     name,
		Authors:  []string{"Ribose Inc."},
		Homepage: "https://github.com/riboseinc/" + name,
		Root:     root,
		Now:      func() time.Time { return time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return pc
}

func renderMap(t *testing.T, pc project.Context) map[string]File {
	t.Helper()
	files, err := Render(NewData(pc))
	require.NoError(t, err)
	m := make(map[string]File, len(files))
	for _, f := range files {
		m[f.Path] = f
	}
	return m
}

func TestRenderWidgets(t *testing.T) {
	files := renderMap(t, newContext(t, "widgets", t.TempDir()))

	for _, p := range []string{
		".gitignore", ".rspec", ".travis.yml", "Gemfile", "LICENSE.txt", "README.md", "Rakefile",
		"bin/console", "bin/setup", "lib/widgets.rb", "lib/widgets/version.rb",
		"spec/spec_helper.rb", "spec/widgets_spec.rb", "widgets.gemspec",
	} {
		assert.Contains(t, files, p)
	}

	assert.Contains(t, string(files["LICENSE.txt"].Content), "Copyright (c) 2019 TODO: Write your name")
	assert.Contains(t, string(files["widgets.gemspec"].Content), `spec.name          = "widgets"`)
	assert.Contains(t, string(files["widgets.gemspec"].Content), "spec.version       = Widgets::VERSION")
	assert.Contains(t, string(files["README.md"].Content), "https://github.com/[USERNAME]/widgets")
	assert.Contains(t, string(files[".travis.yml"].Content), "  - 2.6\n")
	assert.Equal(t, "module Widgets\n  VERSION = \"0.1.0\"\nend\n", string(files["lib/widgets/version.rb"].Content))
	assert.Equal(t, os.FileMode(0o755), files["bin/setup"].Mode)
	assert.Equal(t, os.FileMode(0o644), files["Gemfile"].Mode)
}

func TestRenderNestedModule(t *testing.T) {
	files := renderMap(t, newContext(t, "foo-bar", t.TempDir()))

	require.Contains(t, files, "lib/foo/bar.rb")
	require.Contains(t, files, "lib/foo/bar/version.rb")
	assert.Equal(t,
		"module Foo\n  module Bar\n    VERSION = \"0.1.0\"\n  end\nend\n",
		string(files["lib/foo/bar/version.rb"].Content))
	assert.Contains(t, string(files["lib/foo/bar.rb"].Content), "require \"foo/bar/version\"\n")
	assert.Contains(t, string(files["foo-bar.gemspec"].Content), "Foo::Bar::VERSION")
}

func TestTemplateGenerator(t *testing.T) {
	root := filepath.Join(t.TempDir(), "widgets")
	runner := &shell.FakeRunner{}

	err := NewTemplateGenerator(runner, zerolog.Nop()).Generate(context.Background(), newContext(t, "widgets", root))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "widgets.gemspec"))
	assert.FileExists(t, filepath.Join(root, ".travis.yml"))
	assert.FileExists(t, filepath.Join(root, "lib", "widgets", "version.rb"))
	assert.Equal(t, []string{"git init -q", "git add -A -- ."}, runner.CommandLines())
	assert.Equal(t, root, runner.Calls()[0].Dir)
}

func TestTemplateGeneratorRefusesNonEmptyTarget(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep"), nil, 0o644))
	runner := &shell.FakeRunner{}

	err := NewTemplateGenerator(runner, zerolog.Nop()).Generate(context.Background(), newContext(t, "widgets", root))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindGenerator))
	assert.Empty(t, runner.Calls())
}

func TestTemplateGeneratorGitFailure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "widgets")
	runner := &shell.FakeRunner{Handler: func(shell.Call) (shell.Result, error) {
		return shell.Result{ExitCode: 1, Stderr: "git: not a command"}, nil
	}}

	err := NewTemplateGenerator(runner, zerolog.Nop()).Generate(context.Background(), newContext(t, "widgets", root))
	assert.True(t, apperr.Is(err, apperr.KindGenerator))
}

func TestBundlerGenerator(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "widgets")
	runner := &shell.FakeRunner{}

	err := NewBundlerGenerator(runner, zerolog.Nop()).Generate(context.Background(), newContext(t, "widgets", root))
	require.NoError(t, err)
	assert.Equal(t, []string{"bundle gem widgets --test=rspec --mit --no-coc"}, runner.CommandLines())
	assert.Equal(t, parent, runner.Calls()[0].Dir)
}

func TestBundlerGeneratorErrors(t *testing.T) {
	t.Run("root name mismatch", func(t *testing.T) {
		runner := &shell.FakeRunner{}
		pc := newContext(t, "widgets", filepath.Join(t.TempDir(), "gadgets"))
		err := NewBundlerGenerator(runner, zerolog.Nop()).Generate(context.Background(), pc)
		assert.True(t, apperr.Is(err, apperr.KindGenerator))
		assert.Empty(t, runner.Calls())
	})

	t.Run("bundler fails", func(t *testing.T) {
		runner := &shell.FakeRunner{Handler: func(shell.Call) (shell.Result, error) {
			return shell.Result{ExitCode: 15, Stderr: "Invalid gem name"}, nil
		}}
		pc := newContext(t, "widgets", filepath.Join(t.TempDir(), "widgets"))
		err := NewBundlerGenerator(runner, zerolog.Nop()).Generate(context.Background(), pc)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindGenerator))
		assert.Contains(t, err.Error(), "Invalid gem name")
	})
}
