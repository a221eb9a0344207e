package cli

import (
	"fmt"

	"github.com/knomic/pluginsync/internal/branding"
	"github.com/knomic/pluginsync/internal/manifest"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export installed extensions to a manifest",
	Long: `Write the extensions installed on this host (name, version, active flag,
slug) as a manifest. The manifest goes to stdout unless --output is given.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write the manifest to this file")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Manifest format: json or yaml (default from the file extension, else "+branding.DefaultFormat()+")")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := exportFormatFor(exportFormat, exportOutput)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cmd.ErrOrStderr(), "")
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.inventory.ListInstalled(cmd.Context())
	if err != nil {
		return err
	}

	if exportOutput != "" {
		if err := manifest.WriteFile(exportOutput, records, format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d plugin(s) to %s\n", len(records), exportOutput)
		return nil
	}

	data, err := manifest.Encode(records, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// exportFormatFor picks the explicit format, else the output file's
// extension, else the branded default.
func exportFormatFor(explicit, output string) (manifest.Format, error) {
	if explicit != "" {
		return manifest.ParseFormat(explicit)
	}
	if output != "" {
		return manifest.FormatFromPath(output), nil
	}
	return manifest.ParseFormat(branding.DefaultFormat())
}
