package doctor

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/checklist"
	"github.com/riboseinc/gemstrap/internal/shell"
)

// Tool describes one external program.
type Tool struct {
	Name    string
	Args    []string // prints the version
	Minimum string   // empty means any version
	Purpose string
}

// Tools are the programs the bootstrap pipeline calls.
var Tools = []Tool{
	{Name: "git", Args: []string{"--version"}, Minimum: "2.0.0", Purpose: "checkpoints"},
	{Name: "ruby", Args: []string{"--version"}, Purpose: "gem runtime"},
	{Name: "bundle", Args: []string{"--version"}, Purpose: "scaffold and dependencies"},
	{Name: "pandoc", Args: []string{"--version"}, Purpose: "AsciiDoc conversion"},
}

var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)

// Result is the finding for one tool.
type Result struct {
	Tool    Tool
	Path    string
	Version string
	Err     error
}

// OK reports whether the tool was found and satisfies its minimum.
func (r Result) OK() bool { return r.Err == nil }

// Checker inspects tools through a shell.Runner.
type Checker struct {
	runner   shell.Runner
	lookPath func(string) (string, bool)
}

// New returns a Checker. A nil lookPath resolves against PATH.
func New(runner shell.Runner, lookPath func(string) (string, bool)) *Checker {
	if lookPath == nil {
		lookPath = shell.LookPath
	}
	return &Checker{runner: runner, lookPath: lookPath}
}

// Check inspects a single tool.
func (c *Checker) Check(ctx context.Context, t Tool) Result {
	res := Result{Tool: t}
	path, ok := c.lookPath(t.Name)
	if !ok {
		res.Err = apperr.Newf(apperr.KindCollaborator, "%s not found on PATH", t.Name)
		return res
	}
	res.Path = path

	out, err := c.runner.Run(ctx, t.Name, t.Args, shell.Opts{})
	if err := shell.Check(out, err, t.Name+" "+t.Args[0]); err != nil {
		res.Err = err
		return res
	}
	res.Version = versionPattern.FindString(out.Stdout + out.Stderr)

	if t.Minimum == "" {
		return res
	}
	res.Err = checkMinimum(t, res.Version)
	return res
}

func checkMinimum(t Tool, version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return apperr.Newf(apperr.KindCollaborator, "cannot parse %s version %q", t.Name, version)
	}
	c, err := semver.NewConstraint(">= " + t.Minimum)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return apperr.Newf(apperr.KindCollaborator, "%s %s is older than %s", t.Name, v, t.Minimum)
	}
	return nil
}

// Run checks every tool, writes one line per tool to r and returns an error
// when any tool is missing or too old.
func (c *Checker) Run(ctx context.Context, r *checklist.Reporter, tools []Tool) error {
	failed := 0
	for _, t := range tools {
		res := c.Check(ctx, t)
		label := fmt.Sprintf("%s (%s)", t.Name, t.Purpose)
		switch {
		case res.OK():
			r.OK(label, fmt.Sprintf("%s at %s", res.Version, res.Path))
		case res.Path == "":
			failed++
			r.Miss(label, "not found on PATH")
		default:
			failed++
			r.Fail(label, res.Err)
		}
	}
	if failed > 0 {
		return apperr.Newf(apperr.KindCollaborator, "%d of %d tools missing or unusable", failed, len(tools))
	}
	return nil
}
