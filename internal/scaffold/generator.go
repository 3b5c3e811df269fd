package scaffold

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/project"
)

// DefaultRubyVersion is the interpreter the generated CI config starts with.
const DefaultRubyVersion = "2.6"

// Data holds the variables available to gem templates.
type Data struct {
	Name        string   // e.g. "foo-bar"
	Module      string   // e.g. "Foo::Bar"
	Modules     []string // e.g. ["Foo", "Bar"]
	Path        string   // require path, e.g. "foo/bar"
	Year        int
	RubyVersion string
}

// NewData derives template variables from pc.
func NewData(pc project.Context) Data {
	return Data{
		Name:        pc.Name(),
		Module:      pc.Module(),
		Modules:     strings.Split(pc.Module(), "::"),
		Path:        strings.ReplaceAll(pc.Name(), "-", "/"),
		Year:        pc.Year(),
		RubyVersion: DefaultRubyVersion,
	}
}

// checkTarget fails unless dir is absent or an empty directory.
func checkTarget(dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return apperr.Wrap(apperr.KindGenerator, "inspecting "+dir, err)
	case len(entries) > 0:
		return apperr.Newf(apperr.KindGenerator, "target directory %s is not empty", dir)
	}
	return nil
}
