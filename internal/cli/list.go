package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/knomic/pluginsync/internal/manifest"
	"github.com/spf13/cobra"
)

var (
	listActiveOnly bool
	listJSON       bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed extensions",
	Long:  `List the extensions found in the extension directory with their activation state.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listActiveOnly, "active", false, "Only show active extensions")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.inventory.ListInstalled(cmd.Context())
	if err != nil {
		return err
	}

	entries := filterActive(records, listActiveOnly)
	if len(entries) == 0 {
		if listActiveOnly {
			fmt.Fprintln(cmd.OutOrStdout(), "No active plugins.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No plugins installed yet.")
		}
		return nil
	}

	if listJSON {
		return printListJSON(cmd, entries)
	}
	return printListTable(cmd, entries)
}

func filterActive(records manifest.Manifest, activeOnly bool) manifest.Manifest {
	if !activeOnly {
		return records
	}
	var out manifest.Manifest
	for _, r := range records {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}

func printListTable(cmd *cobra.Command, entries manifest.Manifest) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tVERSION\tACTIVE")
	for _, e := range entries {
		version := e.Version
		if version == "" {
			version = "-"
		}
		active := "no"
		if e.Active {
			active = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Slug, e.Name, version, active)
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, entries manifest.Manifest) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
