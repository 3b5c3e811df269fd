package cli

import (
	"github.com/spf13/cobra"

	"github.com/riboseinc/gemstrap/internal/checklist"
	"github.com/riboseinc/gemstrap/internal/config"
	"github.com/riboseinc/gemstrap/internal/doctor"
	"github.com/riboseinc/gemstrap/internal/logger"
	"github.com/riboseinc/gemstrap/internal/shell"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the tools a bootstrap needs are installed",
	Long: `Look up git, ruby, bundle and pandoc on PATH and report their versions.
Exits non-zero when any of them is missing or too old.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		log := logger.New(cmd.ErrOrStderr(), config.Get(config.KeyLogLevel))
		r := checklist.NewReporter(cmd.OutOrStdout(), log)
		return doctor.New(shell.NewExecRunner(), nil).Run(cmd.Context(), r, doctor.Tools)
	},
}
