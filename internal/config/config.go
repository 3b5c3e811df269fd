package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/branding"
	"github.com/riboseinc/gemstrap/internal/logger"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Setting keys.
const (
	KeyAuthors         = "authors"
	KeyEmail           = "email"
	KeyOrg             = "org"
	KeyHomepage        = "homepage"
	KeySummary         = "summary"
	KeyDescription     = "description"
	KeyRubocopURL      = "rubocop_url"
	KeyEditorconfigURL = "editorconfig_url"
	KeyStepTimeout     = "step_timeout"
	KeyGenerator       = "generator"
	KeyLogLevel        = "log_level"
	KeyTelemetry       = "telemetry"
)

// Generator names accepted by the generator setting.
const (
	GeneratorBundler  = "bundler"
	GeneratorTemplate = "template"
)

func defaults() map[string]any {
	return map[string]any{
		KeyAuthors:         branding.DefaultAuthors(),
		KeyEmail:           branding.DefaultEmail(),
		KeyOrg:             branding.DefaultOrg(),
		KeyHomepage:        branding.HomepagePattern(),
		KeySummary:         "%{module} gem",
		KeyDescription:     "%{summary}",
		KeyRubocopURL:      branding.RubocopURL(),
		KeyEditorconfigURL: branding.EditorconfigURL(),
		KeyStepTimeout:     "0",
		KeyGenerator:       GeneratorBundler,
		KeyLogLevel:        "info",
		KeyTelemetry:       false,
	}
}

// Dir returns the path to the config directory (~/.gemstrap/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.gemstrap/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper from scratch to read from the config file and
// environment. Flag bindings must be made after Load.
func Load() {
	viper.Reset()
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()
	for k, v := range defaults() {
		viper.SetDefault(k, v)
	}

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Keys returns the known setting keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults()))
	for k := range defaults() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key is a known setting.
func IsKey(key string) bool {
	_, ok := defaults()[key]
	return ok
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set validates and writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !IsKey(key) {
		return apperr.Usage("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := validate(key, value); err != nil {
		return err
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

func validate(key, value string) error {
	switch key {
	case KeyStepTimeout:
		if _, err := ParseTimeout(value); err != nil {
			return err
		}
	case KeyGenerator:
		if value != GeneratorBundler && value != GeneratorTemplate {
			return apperr.Usage("generator must be %q or %q", GeneratorBundler, GeneratorTemplate)
		}
	case KeyLogLevel:
		if _, err := logger.ValidLevel(value); err != nil {
			return apperr.Wrap(apperr.KindUsage, "invalid log_level", err)
		}
	case KeyTelemetry:
		if value != "true" && value != "false" {
			return apperr.Usage("telemetry must be true or false")
		}
	}
	return nil
}

// ParseTimeout accepts a Go duration ("90s", "5m") or a bare number of
// seconds. Zero disables the limit.
func ParseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		d, err = time.ParseDuration(value + "s")
	}
	if err != nil || d < 0 {
		return 0, apperr.Usage("invalid step timeout %q", value)
	}
	return d, nil
}
