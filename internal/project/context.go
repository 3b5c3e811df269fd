package project

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riboseinc/gemstrap/internal/apperr"
)

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Params is the raw input used to build a Context.
type Params struct {
	Name        string
	Authors     []string
	Email       string
	Org         string
	Homepage    string
	Summary     string
	Description string
	// Root is the directory the gem lives in. Defaults to ./<Name>.
	Root string
	// Now is the clock used for the copyright year. Defaults to time.Now.
	Now func() time.Time
}

// Context is the read-only project record. The zero value is not useful;
// construct it with New.
type Context struct {
	name        string
	module      string
	authors     []string
	email       string
	org         string
	homepage    string
	summary     string
	description string
	root        string
	year        int
}

// New validates p and returns a Context. The authors slice is copied.
func New(p Params) (Context, error) {
	if err := ValidateName(p.Name); err != nil {
		return Context{}, err
	}
	if len(p.Authors) == 0 {
		return Context{}, apperr.Usage("at least one author is required")
	}
	if p.Homepage == "" {
		return Context{}, apperr.Usage("homepage is required")
	}

	root := p.Root
	if root == "" {
		root = p.Name
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Context{}, apperr.Wrap(apperr.KindUsage, "resolving project root", err)
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	authors := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	if len(authors) == 0 {
		return Context{}, apperr.Usage("at least one author is required")
	}

	return Context{
		name:        p.Name,
		module:      ModuleName(p.Name),
		authors:     authors,
		email:       p.Email,
		org:         p.Org,
		homepage:    p.Homepage,
		summary:     p.Summary,
		description: p.Description,
		root:        abs,
		year:        now().Year(),
	}, nil
}

// ValidateName checks that name is a usable gem name.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return apperr.Usage("invalid gem name %q: must match pattern [a-z][a-z0-9_-]*", name)
	}
	return nil
}

func (c Context) Name() string        { return c.name }
func (c Context) Module() string      { return c.module }
func (c Context) Email() string       { return c.email }
func (c Context) Org() string         { return c.org }
func (c Context) Homepage() string    { return c.homepage }
func (c Context) Summary() string     { return c.summary }
func (c Context) Description() string { return c.description }
func (c Context) Root() string        { return c.root }
func (c Context) Year() int           { return c.year }

// Authors returns a copy of the author list.
func (c Context) Authors() []string {
	out := make([]string, len(c.authors))
	copy(out, c.authors)
	return out
}

// Path joins elem onto the project root.
func (c Context) Path(elem ...string) string {
	return filepath.Join(append([]string{c.root}, elem...)...)
}

// Fields returns the values available to patch templates.
func (c Context) Fields() map[string]string {
	return map[string]string{
		"name":        c.name,
		"module":      c.module,
		"authors":     strings.Join(c.authors, ", "),
		"email":       c.email,
		"org":         c.org,
		"homepage":    c.homepage,
		"summary":     c.summary,
		"description": c.description,
		"year":        strconv.Itoa(c.year),
	}
}

// String is used in log lines.
func (c Context) String() string {
	return fmt.Sprintf("%s (%s)", c.name, c.root)
}
