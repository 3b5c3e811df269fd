package collab

import (
	"context"

	"github.com/riboseinc/gemstrap/internal/project"
)

// Generator creates the initial gem tree at pc.Root().
type Generator interface {
	Generate(ctx context.Context, pc project.Context) error
}

// Fetcher retrieves a remote template.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Converter turns the Markdown documents under root into AsciiDoc and
// returns the paths it removed and created, relative to root.
type Converter interface {
	Convert(ctx context.Context, root string) (removed, created []string, err error)
}

// Bundler installs the gem's dependencies and binstubs.
type Bundler interface {
	Install(ctx context.Context, root string) error
}

// Linter applies automatic lint fixes.
type Linter interface {
	Autofix(ctx context.Context, root string) error
}
