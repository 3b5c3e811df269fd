package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/branding"
	"github.com/riboseinc/gemstrap/internal/config"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// flagKeys maps root flags onto the config keys they override.
var flagKeys = map[string]string{
	"authors":      config.KeyAuthors,
	"email":        config.KeyEmail,
	"org":          config.KeyOrg,
	"homepage":     config.KeyHomepage,
	"summary":      config.KeySummary,
	"description":  config.KeyDescription,
	"step-timeout": config.KeyStepTimeout,
	"generator":    config.KeyGenerator,
	"log-level":    config.KeyLogLevel,
	"telemetry":    config.KeyTelemetry,
}

func init() {
	f := rootCmd.Flags()
	f.String("authors", "", "Comma separated gem authors (env "+branding.EnvVar(config.KeyAuthors)+")")
	f.String("email", "", "Contact email written to the gemspec")
	f.String("org", "", "GitHub organization used in the default homepage")
	f.String("homepage", "", "Homepage URL; may use %{org}, %{name} and %{module}")
	f.String("summary", "", "One-line gem summary; may use %{module}")
	f.String("description", "", "Gem description; may use %{summary}")
	f.String("step-timeout", "", "Time limit per step, e.g. 90s or 5m (0 for none)")
	f.String("generator", "", "Skeleton generator: bundler or template")
	f.String("log-level", "", "Log level: trace, debug, info, warn, error")
	f.Bool("telemetry", false, "Export step traces and metrics over OTLP")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName() + " <name>",
	Short: branding.Description(),
	Long: branding.DisplayName() + ` creates a Ruby gem with bundler and then brings it up to house standards:
license and gemspec metadata, README links, RuboCop and EditorConfig rules, Travis CI,
code coverage, AsciiDoc documentation, installed dependencies and lint autofixes.
Each step is reported as it finishes and committed to git.`,
	Example: "  " + branding.CLIName() + " widgets\n  " +
		branding.CLIName() + " foo-bar --authors 'Ada Lovelace' --generator template",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          exactlyOneName,
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		if err := bindFlags(cmd); err != nil {
			return err
		}
		settings, err := config.Current()
		if err != nil {
			return err
		}
		return bootstrap(cmd.Context(), cmd.OutOrStdout(), settings, args[0], defaultEnv(settings))
	},
}

func exactlyOneName(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return apperr.Usage("expected exactly one gem name, got %d arguments", len(args))
	}
	return nil
}

// bindFlags lets explicitly set flags take precedence over the environment
// and the config file.
func bindFlags(cmd *cobra.Command) error {
	for flag, key := range flagKeys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return apperr.Wrap(apperr.KindUsage, "binding --"+flag, err)
		}
	}
	return nil
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}

// Run executes the command tree with explicit arguments and streams.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}
