package vcs

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/riboseinc/gemstrap/internal/shell"
)

// Git runs git in one working tree through a shell.Runner.
type Git struct {
	runner shell.Runner
	dir    string
	log    zerolog.Logger
}

// New returns a Git bound to dir.
func New(runner shell.Runner, dir string, log zerolog.Logger) *Git {
	return &Git{runner: runner, dir: dir, log: log}
}

// Dir returns the working tree the commands run in.
func (g *Git) Dir() string { return g.dir }

// Init creates an empty repository in the working tree.
func (g *Git) Init(ctx context.Context) error {
	_, err := g.run(ctx, "init", "-q")
	return err
}

// ResetMixed unstages everything the generator staged, leaving the working
// tree untouched.
func (g *Git) ResetMixed(ctx context.Context) error {
	_, err := g.run(ctx, "reset", "-q", "--mixed")
	return err
}

// Stage adds paths (files or directories, relative to the working tree) to
// the index. Deletions under those paths are staged too. A path that is gone
// from the working tree and was never tracked has nothing to stage and is
// skipped. Failure is fatal.
func (g *Git) Stage(ctx context.Context, paths []string) error {
	paths, err := g.stageable(ctx, paths)
	if err != nil || len(paths) == 0 {
		return err
	}
	args := append([]string{"add", "-A", "--"}, paths...)
	_, err = g.run(ctx, args...)
	return err
}

// stageable drops missing paths git does not know about, since git add
// rejects them as unmatched pathspecs.
func (g *Git) stageable(ctx context.Context, paths []string) ([]string, error) {
	var missing []string
	for _, p := range paths {
		if _, err := os.Lstat(filepath.Join(g.dir, p)); err != nil {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return paths, nil
	}

	out, err := g.run(ctx, append([]string{"ls-files", "-z", "--"}, missing...)...)
	if err != nil {
		return nil, err
	}
	tracked := strings.Split(strings.TrimRight(out, "\x00"), "\x00")

	keep := make([]string, 0, len(paths))
	for _, p := range paths {
		if !slices.Contains(missing, p) || isTracked(tracked, p) {
			keep = append(keep, p)
			continue
		}
		g.log.Debug().Str("path", p).Msg("untracked path removed, nothing to stage")
	}
	return keep, nil
}

// isTracked reports whether p names a tracked file or a directory holding one.
func isTracked(tracked []string, p string) bool {
	p = strings.TrimSuffix(filepath.ToSlash(p), "/")
	for _, name := range tracked {
		if name == p || strings.HasPrefix(name, p+"/") {
			return true
		}
	}
	return false
}

// Commit records the staged changes. When nothing is staged it returns
// false without invoking git commit.
func (g *Git) Commit(ctx context.Context, message string) (bool, error) {
	res, err := g.runner.Run(ctx, "git", []string{"diff", "--cached", "--quiet"}, shell.Opts{Dir: g.dir})
	if err != nil {
		return false, shell.Check(res, err, "git diff --cached")
	}
	switch res.ExitCode {
	case 0:
		g.log.Debug().Str("message", message).Msg("nothing staged, skipping commit")
		return false, nil
	case 1:
	default:
		return false, shell.Check(res, nil, "git diff --cached")
	}

	if _, err := g.run(ctx, "commit", "-q", "-m", message); err != nil {
		return false, err
	}
	g.log.Debug().Str("message", message).Msg("checkpoint committed")
	return true, nil
}

// Version returns the git version string, e.g. "2.43.0".
func (g *Git) Version(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "--version")
	if err != nil {
		return "", err
	}
	// "git version 2.43.0" or "git version 2.39.3 (Apple Git-146)"
	fields := strings.Fields(out)
	if len(fields) < 3 {
		return strings.TrimSpace(out), nil
	}
	return fields[2], nil
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	res, err := g.runner.Run(ctx, "git", args, shell.Opts{Dir: g.dir})
	if err := shell.Check(res, err, "git "+args[0]); err != nil {
		return "", err
	}
	return res.Stdout, nil
}
