package scaffold

import (
	"bytes"
	"context"
	"embed"
	"io/fs"
	"os"
	"path"
	"strings"
	"text/template"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/project"
	"github.com/riboseinc/gemstrap/internal/shell"
	"github.com/riboseinc/gemstrap/internal/vcs"
)

//go:embed all:templates
var templateFS embed.FS

const templateRoot = "templates/gem"

var funcs = template.FuncMap{
	"indent": func(n int) string { return strings.Repeat("  ", n) },
	"add":    func(a, b int) int { return a + b },
	"sub":    func(a, b int) int { return a - b },
}

// TemplateGenerator renders the embedded gem skeleton and initializes a
// git repository with everything staged, as `bundle gem` does.
type TemplateGenerator struct {
	runner shell.Runner
	log    zerolog.Logger
}

// NewTemplateGenerator returns a generator that runs git through runner.
func NewTemplateGenerator(runner shell.Runner, log zerolog.Logger) *TemplateGenerator {
	return &TemplateGenerator{runner: runner, log: log}
}

// Generate writes the skeleton to pc.Root().
func (g *TemplateGenerator) Generate(ctx context.Context, pc project.Context) error {
	if err := checkTarget(pc.Root()); err != nil {
		return err
	}
	if err := os.MkdirAll(pc.Root(), 0o755); err != nil {
		return apperr.Wrap(apperr.KindGenerator, "creating "+pc.Root(), err)
	}

	files, err := Render(NewData(pc))
	if err != nil {
		return err
	}
	dst := osfs.New(pc.Root())
	for _, f := range files {
		if err := util.WriteFile(dst, f.Path, f.Content, f.Mode); err != nil {
			return apperr.Wrap(apperr.KindGenerator, "writing "+f.Path, err)
		}
	}
	g.log.Debug().Int("files", len(files)).Str("root", pc.Root()).Msg("skeleton rendered")

	git := vcs.New(g.runner, pc.Root(), g.log)
	if err := git.Init(ctx); err != nil {
		return apperr.Wrap(apperr.KindGenerator, "initializing repository", err)
	}
	if err := git.Stage(ctx, []string{"."}); err != nil {
		return apperr.Wrap(apperr.KindGenerator, "staging skeleton", err)
	}
	return nil
}

// File is one rendered skeleton file.
type File struct {
	Path    string // slash-separated, relative to the gem root
	Content []byte
	Mode    os.FileMode
}

// Render executes every embedded template against data and returns the
// files in lexical path order.
func Render(data Data) ([]File, error) {
	var files []File
	err := fs.WalkDir(templateFS, templateRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := templateFS.ReadFile(p)
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(p, templateRoot+"/")
		tmpl, err := template.New(rel).Funcs(funcs).Parse(string(raw))
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return err
		}

		out := strings.TrimSuffix(rel, ".tmpl")
		out = strings.ReplaceAll(out, "__path__", data.Path)
		out = strings.ReplaceAll(out, "__name__", data.Name)
		mode := os.FileMode(0o644)
		if path.Dir(out) == "bin" {
			mode = 0o755
		}
		files = append(files, File{Path: out, Content: buf.Bytes(), Mode: mode})
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindGenerator, "rendering templates", err)
	}
	return files, nil
}
