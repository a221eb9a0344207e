package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/knomic/pluginsync/internal/manifest"
	"github.com/spf13/cobra"
)

// importAck is printed after a manifest was queued.
const importAck = "Plugins scheduled for installation."

// importRejected is printed for any payload that fails to decode.
const importRejected = "Invalid file uploaded."

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Queue a manifest for reconciliation",
	Long: `Decode a manifest (JSON or YAML) and replace the work queue with its
records. The first tick is scheduled after tick_delay; use "run" to process
the queue in the background or "tick" to process one entry now.

Pass "-" to read the manifest from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := readManifestInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	records, err := manifest.Decode(data)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), color.New(color.FgRed).Sprint(importRejected))
		var de *manifest.DecodeError
		if errors.As(err, &de) {
			for _, issue := range de.Issues {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", issuePath(issue.Path), issue.Message)
			}
		}
		return err
	}

	a, err := newApp(cmd.Context(), cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := a.Engine(cmd.Context())
	if err != nil {
		return err
	}
	batch, err := engine.Import(cmd.Context(), records)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, color.New(color.FgGreen).Sprint(importAck))
	fmt.Fprintf(out, "  batch:   %s\n", batch)
	fmt.Fprintf(out, "  entries: %d\n", len(records))
	return nil
}

func readManifestInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading manifest from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return data, nil
}

func issuePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
