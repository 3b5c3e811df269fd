package collab

import (
	"context"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/shell"
)

// MarkdownPattern selects the documents the converter rewrites.
const MarkdownPattern = "*.md"

// PandocConverter converts Markdown to AsciiDoc with pandoc.
type PandocConverter struct {
	runner shell.Runner
	log    zerolog.Logger
}

// NewPandocConverter returns a converter that runs pandoc through runner.
func NewPandocConverter(runner shell.Runner, log zerolog.Logger) *PandocConverter {
	return &PandocConverter{runner: runner, log: log}
}

// Convert enumerates the Markdown files in root once, then converts and
// removes them one by one. A failure stops the loop; files already
// converted stay converted.
func (c *PandocConverter) Convert(ctx context.Context, root string) ([]string, []string, error) {
	docs, err := doublestar.Glob(os.DirFS(root), MarkdownPattern)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindCollaborator, "listing markdown files", err)
	}

	fs := osfs.New(root)
	var removed, created []string
	for _, md := range docs {
		adoc := strings.TrimSuffix(md, ".md") + ".adoc"
		res, err := c.runner.Run(ctx, "pandoc",
			[]string{"-f", "gfm", "-t", "asciidoc", "-o", adoc, md},
			shell.Opts{Dir: root})
		if err := shell.Check(res, err, "pandoc "+md); err != nil {
			return removed, created, err
		}
		created = append(created, adoc)

		if err := fs.Remove(md); err != nil {
			return removed, created, apperr.Wrap(apperr.KindCollaborator, "removing "+md, err)
		}
		removed = append(removed, md)
		c.log.Debug().Str("from", md).Str("to", adoc).Msg("converted")
	}
	return removed, created, nil
}

// BundlerTool runs bundle install and generates binstubs.
type BundlerTool struct {
	runner   shell.Runner
	binstubs []string
}

// NewBundlerTool returns a Bundler that generates binstubs for gems.
func NewBundlerTool(runner shell.Runner, gems ...string) *BundlerTool {
	if len(gems) == 0 {
		gems = []string{"rspec-core", "rubocop"}
	}
	return &BundlerTool{runner: runner, binstubs: gems}
}

// Install runs `bundle install` then `bundle binstubs`.
func (b *BundlerTool) Install(ctx context.Context, root string) error {
	res, err := b.runner.Run(ctx, "bundle", []string{"install"}, shell.Opts{Dir: root})
	if err := shell.Check(res, err, "bundle install"); err != nil {
		return err
	}
	args := append([]string{"binstubs"}, b.binstubs...)
	res, err = b.runner.Run(ctx, "bundle", args, shell.Opts{Dir: root})
	return shell.Check(res, err, "bundle binstubs")
}

// RubocopLinter runs `bundle exec rubocop -a`.
type RubocopLinter struct {
	runner shell.Runner
}

// NewRubocopLinter returns a Linter backed by rubocop.
func NewRubocopLinter(runner shell.Runner) *RubocopLinter {
	return &RubocopLinter{runner: runner}
}

// Autofix corrects what rubocop can. Rubocop exits non-zero whenever
// offenses remain, so callers treat the error as informational.
func (l *RubocopLinter) Autofix(ctx context.Context, root string) error {
	res, err := l.runner.Run(ctx, "bundle", []string{"exec", "rubocop", "-a"}, shell.Opts{Dir: root})
	return shell.Check(res, err, "rubocop -a")
}

var (
	_ Converter = (*PandocConverter)(nil)
	_ Bundler   = (*BundlerTool)(nil)
	_ Linter    = (*RubocopLinter)(nil)
)
