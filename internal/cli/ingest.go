package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joeyyy09/clinical-flow/internal/ingestion"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	File string
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest [roots...]",
		Short: "Ingest spreadsheet exports into the store",
		Long: `Walk each root, classify every workbook by file name and store its records.

Roots default to ingestion.roots from the configuration. s3://bucket/prefix
roots are read from the configured object store. Files that cannot be parsed
are reported and skipped; the command still exits 0. A root that exists but
cannot be read aborts the run before any file is ingested (exit code 2).

Examples:
  clinicalflow ingest ./exports
  clinicalflow ingest s3://trial-drops/study-101/
  clinicalflow ingest --file "./uploads/Study 101_eSAE Dashboard.xlsx"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app, out *OutputFormatter) error {
				return runIngest(ctx, opts, a, out, args)
			})
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "ingest a single file instead of walking roots")

	return cmd
}

func runIngest(ctx context.Context, opts *IngestOptions, a *app, out *OutputFormatter, roots []string) error {
	if opts.File != "" && len(roots) > 0 {
		return NewExitError(ExitCommandError, "--file cannot be combined with roots")
	}
	if opts.File == "" && len(roots) == 0 {
		roots = a.cfg.Ingestion.Roots
	}

	locations := roots
	if opts.File != "" {
		locations = []string{opts.File}
	}
	pipeline, notifier, err := a.pipeline(ctx, locations)
	if err != nil {
		return err
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			a.logger.Warn("Failed to close event publisher", slog.String("error", err.Error()))
		}
	}()

	var report *domain.IngestReport
	if opts.File != "" {
		report, err = pipeline.IngestFile(ctx, opts.File)
	} else {
		report, err = pipeline.Run(ctx, roots)
	}

	if errors.Is(err, ingestion.ErrRootInaccessible) {
		return WrapExitError(ExitCommandError, "ingestion aborted", err)
	}

	out.TraceID = report.RunID
	if printErr := out.Success(report, func(w io.Writer) { printIngestReport(w, report) }); printErr != nil {
		return printErr
	}
	if err != nil {
		return WrapExitError(ExitFailure, "ingestion interrupted", err)
	}
	return nil
}

func printIngestReport(w io.Writer, r *domain.IngestReport) {
	rows := make([][]string, 0, len(r.Files))
	for _, f := range r.Files {
		detail := f.SkipReason
		if f.Error != "" {
			detail = truncate(f.Error, 60)
		}
		rows = append(rows, []string{
			string(f.Status),
			f.Kind.String(),
			f.StudyID,
			strconv.Itoa(f.Records),
			filepath.Base(f.Path),
			detail,
		})
	}
	printTable(w, []string{"status", "kind", "study", "records", "file", "detail"}, rows)

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	fmt.Fprintf(w, "\n%d ingested, %d skipped, %d failed, %d records (run %s)\n",
		r.Count(domain.IngestStatusIngested),
		r.Count(domain.IngestStatusSkipped),
		r.Count(domain.IngestStatusFailed),
		r.RecordsIngested(),
		r.RunID)
}
