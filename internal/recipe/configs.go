package recipe

import (
	"context"
	"fmt"
	"os"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/configdoc"
	"github.com/riboseinc/gemstrap/internal/patch"
	"github.com/riboseinc/gemstrap/internal/project"
)

const (
	rubocopFile      = ".rubocop.yml"
	editorconfigFile = ".editorconfig"
	travisFile       = ".travis.yml"
	rubyHead         = "ruby-head"
)

// rubocop installs the shared lint configuration and pins the target Ruby
// version when the template leaves it open.
func (g *gem) rubocop(ctx context.Context, _ project.Context) (string, error) {
	body, err := g.deps.Fetcher.Fetch(ctx, g.deps.Settings.RubocopURL)
	if err != nil {
		return "", err
	}
	doc, err := configdoc.Parse(rubocopFile, body)
	if err != nil {
		return "", err
	}
	if err := doc.EnsureDefault("AllCops.TargetRubyVersion", g.deps.Settings.TargetRubyVersion); err != nil {
		return "", apperr.Wrap(apperr.KindParse, "editing "+rubocopFile, err)
	}
	if err := doc.MustValidate(configdoc.SchemaRubocop); err != nil {
		return "", err
	}
	if err := doc.Save(g.fs); err != nil {
		return "", apperr.Wrap(apperr.KindParse, "saving "+rubocopFile, err)
	}
	return "", nil
}

func (g *gem) editorconfig(ctx context.Context, _ project.Context) (string, error) {
	body, err := g.deps.Fetcher.Fetch(ctx, g.deps.Settings.EditorconfigURL)
	if err != nil {
		return "", err
	}
	if err := patch.WriteFileAtomic(g.fs, editorconfigFile, body, 0o644); err != nil {
		return "", apperr.Wrap(apperr.KindCollaborator, "writing "+editorconfigFile, err)
	}
	return "", nil
}

// travis widens the CI matrix: every configured interpreter plus ruby-head,
// with ruby-head allowed to fail.
func (g *gem) travis(_ context.Context, _ project.Context) (string, error) {
	doc, err := g.loadTravis()
	if err != nil {
		return "", err
	}

	head := map[string]any{"rvm": rubyHead}
	edits := []struct {
		what string
		run  func() error
	}{
		{"drop sudo", func() error { doc.Delete("sudo"); return nil }},
		{"rvm", func() error { return doc.AppendUnique("rvm", toAny(g.deps.Settings.RubyVersions)...) }},
		{"sort rvm", func() error { return doc.SortDedup("rvm") }},
		{"matrix.include", func() error { return doc.AppendUnique("matrix.include", head) }},
		{"matrix.allow_failures", func() error { return doc.AppendUnique("matrix.allow_failures", head) }},
		{"fast_finish", func() error { return doc.EnsureDefault("matrix.fast_finish", true) }},
	}
	for _, e := range edits {
		if err := e.run(); err != nil {
			return "", apperr.Wrap(apperr.KindParse, fmt.Sprintf("editing %s (%s)", travisFile, e.what), err)
		}
	}

	if err := doc.MustValidate(configdoc.SchemaTravis); err != nil {
		return "", err
	}
	if err := doc.Save(g.fs); err != nil {
		return "", apperr.Wrap(apperr.KindParse, "saving "+travisFile, err)
	}

	versions, err := doc.Strings("rvm")
	if err != nil {
		return "", apperr.Wrap(apperr.KindParse, "reading "+travisFile, err)
	}
	return fmt.Sprintf("rvm %v + %s", versions, rubyHead), nil
}

// loadTravis reads the generated Travis config. Bundler only writes one when
// asked to with --ci, so a missing file starts a fresh Ruby config.
func (g *gem) loadTravis() (*configdoc.Document, error) {
	if _, err := g.fs.Stat(travisFile); !os.IsNotExist(err) {
		return configdoc.Load(g.fs, travisFile)
	}
	g.log.Debug().Str("file", travisFile).Msg("not generated, starting from an empty config")
	doc := configdoc.New(travisFile)
	if err := doc.EnsureDefault("language", "ruby"); err != nil {
		return nil, apperr.Wrap(apperr.KindParse, "seeding "+travisFile, err)
	}
	return doc, nil
}

func toAny(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
