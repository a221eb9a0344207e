package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var activateCmd = &cobra.Command{
	Use:   "activate <slug>",
	Short: "Mark an installed extension active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setActivation(cmd, args[0], true)
	},
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <slug>",
	Short: "Mark an extension inactive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setActivation(cmd, args[0], false)
	},
}

func init() {
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(deactivateCmd)
}

func setActivation(cmd *cobra.Command, slug string, desired bool) error {
	a, err := newApp(cmd.Context(), cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.activator.EnsureActivationState(cmd.Context(), slug, desired)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", slug, res)
	return nil
}
