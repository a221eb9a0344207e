package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/knomic/pluginsync/internal/reconcile"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the work queue and scheduled task",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(statusCmd)
}

// statusView is the JSON shape of the status command.
type statusView struct {
	State      string     `json:"state"`
	BatchID    string     `json:"batch_id,omitempty"`
	ImportedAt *time.Time `json:"imported_at,omitempty"`
	Remaining  int        `json:"remaining"`
	Next       string     `json:"next,omitempty"`
	Pending    bool       `json:"pending"`
	NextRun    *time.Time `json:"next_run,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := a.Engine(cmd.Context())
	if err != nil {
		return err
	}
	st, err := engine.Status(cmd.Context())
	if err != nil {
		return err
	}

	view := newStatusView(st)
	if statusJSON {
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	w := cmd.OutOrStdout()
	stateColor := color.FgGreen
	if st.State == reconcile.Draining {
		stateColor = color.FgYellow
	}
	fmt.Fprintf(w, "State:     %s\n", color.New(stateColor).Sprint(view.State))
	if view.BatchID != "" {
		fmt.Fprintf(w, "Batch:     %s (imported %s)\n", view.BatchID, st.ImportedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Remaining: %d\n", view.Remaining)
	if view.Next != "" {
		fmt.Fprintf(w, "Next:      %s\n", view.Next)
	}
	switch {
	case st.Pending:
		fmt.Fprintf(w, "Scheduled: %s\n", st.NextRun.Format(time.RFC3339))
	case st.State == reconcile.Draining:
		fmt.Fprintf(w, "Scheduled: %s\n", color.New(color.FgRed).Sprint("no (run 'resume' to re-arm)"))
	default:
		fmt.Fprintln(w, "Scheduled: no")
	}
	return nil
}

func newStatusView(st reconcile.Status) statusView {
	v := statusView{
		State:     st.State.String(),
		BatchID:   st.BatchID,
		Remaining: st.Remaining,
		Pending:   st.Pending,
	}
	if !st.ImportedAt.IsZero() {
		t := st.ImportedAt
		v.ImportedAt = &t
	}
	if st.Head != nil {
		v.Next = st.Head.DisplayName()
	}
	if st.Pending {
		t := st.NextRun
		v.NextRun = &t
	}
	return v
}
