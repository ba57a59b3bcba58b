package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wastewatch/internal/export"
	"github.com/blackwell-systems/wastewatch/internal/output"
)

var (
	exportFormat string
	exportOutput string

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export records and statistics",
		Long: `Write every record to a file for use elsewhere.

  - csv: one row per record with the weekday and month spelled out
  - json: metadata, every record and the all-time statistics`,
		Example: `  # Spreadsheet-friendly export
  wastewatch export --format csv --output waste.csv

  # Full JSON export
  wastewatch export --format json`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}
)

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: wastewatch-export.<format>)")

	RootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(exportFormat)
	if format != "csv" && format != "json" {
		return fmt.Errorf("unknown format %q (want csv or json)", exportFormat)
	}
	path := exportOutput
	if path == "" {
		path = "wastewatch-export." + format
	}

	e, err := openEnv(envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	ex := export.New(e.agg)
	out := cmd.OutOrStdout()

	if format == "csv" {
		n, err := ex.ToCSV(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Exported %d records to %s\n", n, path)
		return nil
	}

	doc, err := ex.ToJSON(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Exported %d records (%s) to %s\n",
		doc.Metadata.TotalEntries, output.FormatGrams(doc.Metadata.TotalWeight), path)
	fmt.Fprintf(out, "  Export ID: %s\n", doc.Metadata.ExportID)
	return nil
}
