package recipe

import (
	"context"
	"regexp"

	"github.com/go-git/go-billy/v5/util"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/patch"
	"github.com/riboseinc/gemstrap/internal/project"
)

const (
	licenseFile    = "LICENSE.txt"
	readmeFile     = "README.md"
	readmeAdocFile = "README.adoc"
	specHelperFile = "spec/spec_helper.rb"
	gitignoreFile  = ".gitignore"
	gemfileFile    = "Gemfile"
)

var licenseRules = []patch.Rule{{
	Name:      "copyright holder",
	Pattern:   `(?m)^Copyright \(c\) (\d{4}) .*$`,
	Replace:   `Copyright (c) ${1} %{authors}`,
	Mandatory: true,
}}

// gemspecRules fill the bundler placeholders and drop the push-host
// restriction together with the comment that introduces it.
var gemspecRules = []patch.Rule{
	{
		Name:      "authors",
		Pattern:   `(?m)^(\s*spec\.authors\s*=\s*).*$`,
		Replace:   `${1}%{authors_list}`,
		Mandatory: true,
	},
	{
		Name:      "email",
		Pattern:   `(?m)^(\s*spec\.email\s*=\s*).*$`,
		Replace:   `${1}%{email_list}`,
		Mandatory: true,
	},
	{
		Name:      "summary",
		Pattern:   `(?m)^(\s*spec\.summary\s*=\s*).*$`,
		Replace:   `${1}%{summary:ruby}`,
		Mandatory: true,
	},
	{
		Name:    "description",
		Pattern: `(?m)^(\s*spec\.description\s*=\s*).*$`,
		Replace: `${1}%{description:ruby}`,
	},
	{
		Name:      "homepage",
		Pattern:   `(?m)^(\s*spec\.homepage\s*=\s*).*$`,
		Replace:   `${1}%{homepage:ruby}`,
		Mandatory: true,
	},
	{
		Name:    "source code uri",
		Pattern: `(?m)^(\s*spec\.metadata\["source_code_uri"\]\s*=\s*).*$`,
		Replace: `${1}spec.homepage`,
	},
	{
		Name:    "changelog uri",
		Pattern: `(?m)^[ \t]*spec\.metadata\["changelog_uri"\].*\n`,
		Replace: ``,
	},
	{
		Name:    "push host comment",
		Pattern: `(?m)^[ \t]*# Prevent pushing this gem to RubyGems\.org.*\n(?:[ \t]*# to allow pushing .*\n)?`,
		Replace: ``,
	},
	{
		Name:    "allowed push host",
		Pattern: `(?m)^[ \t]*spec\.metadata\["allowed_push_host"\].*\n(?:[ \t]*\n)?`,
		Replace: ``,
	},
}

var readmeRules = []patch.Rule{
	{
		Name:    "repository url",
		Pattern: `https://github\.com/\[USERNAME\]/%{name}`,
		Replace: `%{homepage}`,
	},
	{
		Name:    "description",
		Pattern: `(?m)^TODO: Delete this and the text above, and describe your gem$`,
		Replace: `%{description}`,
	},
}

var coverageGemspecRules = []patch.Rule{{
	Name:      "simplecov dependency",
	Pattern:   `(?m)^([ \t]*)(spec\.add_development_dependency "rspec".*)\n(?:[ \t]*spec\.add_development_dependency "simplecov".*\n)?`,
	Replace:   "${1}${2}\n${1}spec.add_development_dependency \"simplecov\"\n",
	Mandatory: true,
}}

// rspecDependency finds the rspec development dependency older bundlers put
// in the gemspec. Newer ones list rspec in the Gemfile instead.
var rspecDependency = regexp.MustCompile(`(?m)^[ \t]*spec\.add_development_dependency "rspec"`)

var coverageGemfileRules = []patch.Rule{{
	Name:    "simplecov gem",
	Pattern: `(?m)^([ \t]*)(gem "rspec".*)\n(?:[ \t]*gem "simplecov".*\n)?`,
	Replace: "${1}${2}\n${1}gem \"simplecov\"\n",
}}

var coverageHelperRules = []patch.Rule{{
	Name:      "simplecov start",
	Pattern:   `\A(?:require "simplecov"\nSimpleCov\.start\n\n)?`,
	Replace:   "require \"simplecov\"\nSimpleCov.start\n\n",
	Mandatory: true,
}}

func (g *gem) license(_ context.Context, _ project.Context) (string, error) {
	return "", g.patcher.Apply(licenseFile, licenseRules)
}

func (g *gem) gemspec(_ context.Context, pc project.Context) (string, error) {
	return "", g.patcher.Apply(pc.Name()+".gemspec", gemspecRules)
}

// readme patches README.md, or README.adoc when the docs have already been
// converted, and returns the name it patched.
func (g *gem) readme() (string, error) {
	name := readmeFile
	if _, err := g.fs.Stat(readmeFile); err != nil {
		if _, adocErr := g.fs.Stat(readmeAdocFile); adocErr == nil {
			name = readmeAdocFile
		}
	}
	return name, g.patcher.Apply(name, readmeRules)
}

// coverage wires SimpleCov in next to rspec, in the gemspec or the Gemfile,
// adds it to the spec helper and keeps its output out of git. It returns the
// files it touched.
func (g *gem) coverage(pc project.Context) ([]string, error) {
	dependency, err := g.simplecovDependency(pc.Name() + ".gemspec")
	if err != nil {
		return nil, err
	}
	if err := g.patcher.Apply(specHelperFile, coverageHelperRules); err != nil {
		return nil, err
	}
	if err := g.patcher.EnsureLines(gitignoreFile, "/coverage/"); err != nil {
		return nil, err
	}
	return []string{dependency, specHelperFile, gitignoreFile}, nil
}

// simplecovDependency declares simplecov where rspec is declared and returns
// that file's name.
func (g *gem) simplecovDependency(gemspec string) (string, error) {
	raw, err := util.ReadFile(g.fs, gemspec)
	if err != nil {
		return "", apperr.Wrap(apperr.KindPatch, "reading "+gemspec, err)
	}
	if rspecDependency.Match(raw) {
		return gemspec, g.patcher.Apply(gemspec, coverageGemspecRules)
	}

	g.log.Debug().Str("file", gemfileFile).Msg("no rspec dependency in gemspec, using the Gemfile")
	if err := g.patcher.Apply(gemfileFile, coverageGemfileRules); err != nil {
		return "", err
	}
	return gemfileFile, g.patcher.EnsureLines(gemfileFile, `gem "simplecov"`)
}
