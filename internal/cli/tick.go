package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/knomic/pluginsync/internal/activator"
	"github.com/knomic/pluginsync/internal/reconcile"
	"github.com/spf13/cobra"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Process one queued extension now",
	Long: `Run a single reconciliation tick in the foreground: pop the head of the
work queue, install and activate it as needed, and re-arm the scheduled task
while entries remain.`,
	Args: cobra.NoArgs,
	RunE: runTick,
}

func init() {
	rootCmd.AddCommand(tickCmd)
}

func runTick(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := a.Engine(cmd.Context())
	if err != nil {
		return err
	}
	out, err := engine.Tick(cmd.Context())
	if err != nil {
		return err
	}
	printOutcome(cmd.OutOrStdout(), out)
	return nil
}

func printOutcome(w io.Writer, out reconcile.TickOutcome) {
	if out.Processed == nil {
		fmt.Fprintln(w, "Queue is empty; nothing to do.")
		return
	}

	label := color.New(resultColor(out.Result)).Sprint(out.Result.String())
	fmt.Fprintf(w, "%s  %s\n", label, out.Processed.DisplayName())
	if out.Activation != activator.NoOp {
		fmt.Fprintf(w, "  activation: %s\n", out.Activation)
	}
	if out.Err != nil {
		fmt.Fprintf(w, "  error: %v\n", out.Err)
	}
	if out.Rearm {
		fmt.Fprintf(w, "  %d remaining, next tick in %s\n", out.Remaining, out.Delay)
	} else {
		fmt.Fprintln(w, "  queue drained")
	}
}

func resultColor(r reconcile.Result) color.Attribute {
	switch r {
	case reconcile.ResultInstalled, reconcile.ResultAlreadyPresent:
		return color.FgGreen
	case reconcile.ResultRequeued, reconcile.ResultSkipped:
		return color.FgYellow
	default:
		return color.FgRed
	}
}
