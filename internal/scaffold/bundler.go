package scaffold

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/project"
	"github.com/riboseinc/gemstrap/internal/shell"
)

// BundlerArgs are the flags passed to `bundle gem` after the gem name.
var BundlerArgs = []string{"--test=rspec", "--mit", "--no-coc"}

// BundlerGenerator runs `bundle gem` in the parent of the project root.
type BundlerGenerator struct {
	runner shell.Runner
	log    zerolog.Logger
}

// NewBundlerGenerator returns a generator backed by bundler.
func NewBundlerGenerator(runner shell.Runner, log zerolog.Logger) *BundlerGenerator {
	return &BundlerGenerator{runner: runner, log: log}
}

// Generate creates the gem. bundle gem names the directory after the gem,
// so the root's base name must equal the gem name.
func (g *BundlerGenerator) Generate(ctx context.Context, pc project.Context) error {
	if filepath.Base(pc.Root()) != pc.Name() {
		return apperr.Newf(apperr.KindGenerator,
			"bundle gem creates ./%s; project root %s has a different name", pc.Name(), pc.Root())
	}
	if err := checkTarget(pc.Root()); err != nil {
		return err
	}

	args := append([]string{"gem", pc.Name()}, BundlerArgs...)
	parent := filepath.Dir(pc.Root())
	g.log.Debug().Str("dir", parent).Strs("args", args).Msg("running bundler")

	res, err := g.runner.Run(ctx, "bundle", args, shell.Opts{Dir: parent})
	if err := shell.Check(res, err, "bundle gem"); err != nil {
		return apperr.Wrap(apperr.KindGenerator, "generating "+pc.Name(), err)
	}
	return nil
}
