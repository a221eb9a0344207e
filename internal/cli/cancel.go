package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Clear the scheduled task",
	Long: `Remove the pending scheduled task. The work queue is left untouched;
"resume" re-arms the task later.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd.ErrOrStderr(), "")
		if err != nil {
			return err
		}
		defer a.Close()

		engine, err := a.Engine(cmd.Context())
		if err != nil {
			return err
		}
		if err := engine.Deactivate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Scheduled task cleared.")
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Re-arm the scheduled task for a non-empty queue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd.ErrOrStderr(), "")
		if err != nil {
			return err
		}
		defer a.Close()

		engine, err := a.Engine(cmd.Context())
		if err != nil {
			return err
		}
		more, err := engine.Resume(cmd.Context())
		if err != nil {
			return err
		}
		if !more {
			fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty; nothing to resume.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Scheduled task armed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(resumeCmd)
}
