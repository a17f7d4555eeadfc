package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joeyyy09/clinical-flow/internal/exporter"
)

// ExportResult describes a written report file
type ExportResult struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// NewExportCommand creates the export command group.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write score artifacts to report files",
	}
	cmd.AddCommand(newExportRiskCommand(rootOpts))
	return cmd
}

func newExportRiskCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		out string
		top int
	)

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Export site risk rows as CSV or XLSX",
		Long: `Export site risk rows. The format follows the --out extension (.csv or .xlsx).
Bare file names are written to the reports directory.

Examples:
  clinicalflow export risk --out risk.csv
  clinicalflow export risk --out ./exports/risk.xlsx --top 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, a *app, f *OutputFormatter) error {
				rows, err := a.engine.RiskRows(ctx, top)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to compute risk rows", err)
				}
				path, err := a.riskExporter().Export(rows, out)
				if errors.Is(err, exporter.ErrUnsupportedFormat) {
					return WrapExitError(ExitCommandError, "cannot export", err)
				}
				if err != nil {
					return WrapExitError(ExitFailure, "failed to export risk rows", err)
				}
				result := ExportResult{Path: path, Rows: len(rows)}
				return f.Success(result, func(w io.Writer) {
					fmt.Fprintf(w, "Wrote %d risk rows to %s\n", result.Rows, result.Path)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, .csv or .xlsx (required)")
	_ = cmd.MarkFlagRequired("out")
	cmd.Flags().IntVar(&top, "top", 0, "number of sites (default scoring.risk_top_n)")

	return cmd
}
