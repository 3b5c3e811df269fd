// Package branding provides compile-time identity values for the CLI.
//
// The defaults live in branding.yaml next to this file and are baked into the
// binary with //go:embed. Forks that publish gems for another organization
// edit that file and rebuild.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName         string `yaml:"cli_name"`
	DisplayName     string `yaml:"display_name"`
	Description     string `yaml:"description"`
	HomeDir         string `yaml:"home_dir"`
	EnvPrefix       string `yaml:"env_prefix"`
	DefaultAuthors  string `yaml:"default_authors"`
	DefaultEmail    string `yaml:"default_email"`
	DefaultOrg      string `yaml:"default_org"`
	HomepagePattern string `yaml:"homepage_pattern"`
	RubocopURL      string `yaml:"rubocop_url"`
	EditorconfigURL string `yaml:"editorconfig_url"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:         "gemstrap",
			DisplayName:     "Gemstrap",
			Description:     "Bootstrap a fully configured Ruby gem repository",
			HomeDir:         ".gemstrap",
			EnvPrefix:       "GEMSTRAP",
			DefaultAuthors:  "Ribose Inc.",
			DefaultEmail:    "open.source@ribose.com",
			DefaultOrg:      "riboseinc",
			HomepagePattern: "https://github.com/%{org}/%{name}",
			RubocopURL:      "https://raw.githubusercontent.com/riboseinc/oss-guides/master/ci/rubocop.yml",
			EditorconfigURL: "https://raw.githubusercontent.com/riboseinc/oss-guides/master/ci/editorconfig",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "gemstrap").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".gemstrap").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "GEMSTRAP").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// DefaultAuthors returns the author string used when none is configured.
func DefaultAuthors() string { load(); return defaults.DefaultAuthors }

// DefaultEmail returns the contact email used when none is configured.
func DefaultEmail() string { load(); return defaults.DefaultEmail }

// DefaultOrg returns the GitHub organization used when none is configured.
func DefaultOrg() string { load(); return defaults.DefaultOrg }

// HomepagePattern returns the homepage template. %{org} and %{name} are
// replaced by the organization and gem name.
func HomepagePattern() string { load(); return defaults.HomepagePattern }

// RubocopURL returns the default location of the shared RuboCop rules.
func RubocopURL() string { load(); return defaults.RubocopURL }

// EditorconfigURL returns the default location of the shared .editorconfig.
func EditorconfigURL() string { load(); return defaults.EditorconfigURL }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("org") → "GEMSTRAP_ORG".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
