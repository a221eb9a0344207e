package cli

import (
	"fmt"

	"github.com/knomic/pluginsync/internal/config"
	"github.com/knomic/pluginsync/internal/doctor"
	"github.com/spf13/cobra"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the local installation",
	Long: `Check the configuration directory, the extension directory and the state
database, and report staging directories left by interrupted installs.
With --fix, missing directories are created, permissions are tightened and
leftovers are removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Resolve()
		if err != nil {
			return fmt.Errorf("resolving configuration: %w", err)
		}
		r := doctor.Check(cmd.Context(), cmd.OutOrStdout(), s, doctorFix)
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d ok, %d warning(s), %d failure(s), %d fixed\n", r.OK, r.Warnings, r.Failures, r.Fixed)
		if !r.Healthy() {
			return fmt.Errorf("doctor found %d failure(s)", r.Failures)
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Attempt to repair problems")
	rootCmd.AddCommand(doctorCmd)
}
