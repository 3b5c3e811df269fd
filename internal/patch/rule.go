package patch

import (
	"regexp"

	"github.com/pkg/errors"
)

// Rule is one find/replace transformation applied to a single file.
type Rule struct {
	// Name identifies the rule in errors and logs.
	Name string
	// Pattern is an RE2 expression. %{field} placeholders are expanded and
	// quoted with regexp.QuoteMeta before compiling.
	Pattern string
	// Replace is the replacement template. %{field} and %{field:ruby}
	// placeholders are filled literally; ${1} style references refer to
	// capture groups of Pattern.
	Replace string
	// Mandatory turns a zero-match outcome into an error.
	Mandatory bool
}

// compiled is a Rule with its placeholders resolved.
type compiled struct {
	rule    Rule
	re      *regexp.Regexp
	replace string
}

func (r Rule) compile(fields Fields) (compiled, error) {
	pattern, err := expand(r.Pattern, fields, regexp.QuoteMeta)
	if err != nil {
		return compiled{}, errors.Wrapf(err, "rule %s pattern", r.Name)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return compiled{}, errors.Wrapf(err, "rule %s pattern", r.Name)
	}
	replace, err := expand(r.Replace, fields, escapeDollar)
	if err != nil {
		return compiled{}, errors.Wrapf(err, "rule %s replacement", r.Name)
	}
	return compiled{rule: r, re: re, replace: replace}, nil
}

// apply returns the rewritten content and the number of matches.
func (c compiled) apply(content string) (string, int) {
	n := len(c.re.FindAllStringIndex(content, -1))
	if n == 0 {
		return content, 0
	}
	return c.re.ReplaceAllString(content, c.replace), n
}
