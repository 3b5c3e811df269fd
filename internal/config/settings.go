package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/patch"
	"github.com/riboseinc/gemstrap/internal/project"
)

// Settings is the resolved view of all configuration keys.
type Settings struct {
	Authors         []string
	Email           string
	Org             string
	Homepage        string
	Summary         string
	Description     string
	RubocopURL      string
	EditorconfigURL string
	StepTimeout     time.Duration
	Generator       string
	LogLevel        string
	Telemetry       bool
}

// Current reads every key from Viper and validates the typed ones.
// Load must have been called first.
func Current() (Settings, error) {
	s := Settings{
		Authors:         splitAuthors(viper.Get(KeyAuthors)),
		Email:           viper.GetString(KeyEmail),
		Org:             viper.GetString(KeyOrg),
		Homepage:        viper.GetString(KeyHomepage),
		Summary:         viper.GetString(KeySummary),
		Description:     viper.GetString(KeyDescription),
		RubocopURL:      viper.GetString(KeyRubocopURL),
		EditorconfigURL: viper.GetString(KeyEditorconfigURL),
		Generator:       viper.GetString(KeyGenerator),
		LogLevel:        viper.GetString(KeyLogLevel),
		Telemetry:       viper.GetBool(KeyTelemetry),
	}

	d, err := ParseTimeout(viper.GetString(KeyStepTimeout))
	if err != nil {
		return Settings{}, err
	}
	s.StepTimeout = d

	for _, key := range []string{KeyGenerator, KeyLogLevel} {
		if err := validate(key, viper.GetString(key)); err != nil {
			return Settings{}, err
		}
	}
	return s, nil
}

// splitAuthors accepts a comma separated string (the environment form) or a
// YAML list (the config file form).
func splitAuthors(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []string:
		parts = v
	case []any:
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Params builds the project parameters for gem name. The homepage, summary
// and description settings may reference %{org}, %{name} and %{module};
// description may also reference %{summary}.
func (s Settings) Params(name string) (project.Params, error) {
	if err := project.ValidateName(name); err != nil {
		return project.Params{}, err
	}

	fields := patch.Fields{
		"org":    s.Org,
		"name":   name,
		"module": project.ModuleName(name),
	}

	homepage, err := expandSetting(KeyHomepage, s.Homepage, fields)
	if err != nil {
		return project.Params{}, err
	}
	summary, err := expandSetting(KeySummary, s.Summary, fields)
	if err != nil {
		return project.Params{}, err
	}
	fields["summary"] = summary
	description, err := expandSetting(KeyDescription, s.Description, fields)
	if err != nil {
		return project.Params{}, err
	}

	return project.Params{
		Name:        name,
		Authors:     append([]string(nil), s.Authors...),
		Email:       s.Email,
		Org:         s.Org,
		Homepage:    homepage,
		Summary:     summary,
		Description: description,
	}, nil
}

func expandSetting(key, value string, fields patch.Fields) (string, error) {
	out, err := patch.Expand(value, fields)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUsage, "invalid "+key+" setting", err)
	}
	return out, nil
}
