package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// NewHealthCommand creates the health command.
func NewHealthCommand(rootOpts *RootOptions) *cobra.Command {
	var study string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Score study health (0-100)",
		Long: `Combine the SAE review backlog (40%) with missing-page volume (60%).

Without --study every stored record counts.

Examples:
  clinicalflow health
  clinicalflow health --study STUDY_101 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, a *app, out *OutputFormatter) error {
				health, err := a.engine.StudyHealth(ctx, study)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to score study health", err)
				}
				return out.Success(health, func(w io.Writer) {
					scope := health.StudyID
					if scope == "" {
						scope = "all studies"
					}
					printFields(w, [][2]string{
						{"Study", scope},
						{"Health score", strconv.Itoa(health.Score)},
						{"SAE score", formatScore(health.SAEScore)},
						{"Missing-page score", formatScore(health.MissingScore)},
						{"SAEs", fmt.Sprintf("%d (%d pending)", health.TotalSAEs, health.PendingSAEs)},
						{"Missing pages", strconv.Itoa(health.TotalMissingPages)},
					})
				})
			})
		},
	}

	cmd.Flags().StringVar(&study, "study", "", "restrict to one study id, e.g. STUDY_101")
	return cmd
}

// NewDQICommand creates the dqi command.
func NewDQICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dqi <site>",
		Short: "Compute the Data Quality Index of a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, a *app, out *OutputFormatter) error {
				dqi, err := a.engine.SiteDQI(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "failed to compute site DQI", err)
				}
				return out.Success(dqi, func(w io.Writer) { printDQI(w, dqi) })
			})
		},
	}
}

func printDQI(w io.Writer, dqi domain.SiteDQI) {
	printFields(w, [][2]string{
		{"Site", dqi.Site},
		{"DQI", strconv.Itoa(dqi.DQI)},
		{"Missing pages", fmt.Sprintf("%d (score %s)", dqi.MissingCount, formatScore(dqi.MissingScore))},
		{"Query latency", fmt.Sprintf("%d days (score %s)", dqi.LatencyDays, formatScore(dqi.LatencyScore))},
		{"SAEs", fmt.Sprintf("%d, %d pending (score %s)", dqi.SAETotal, dqi.SAEPending, formatScore(dqi.SAEScore))},
	})
}

// NewRiskCommand creates the risk command.
func NewRiskCommand(rootOpts *RootOptions) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "List the sites with the most missing pages and their risk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, a *app, out *OutputFormatter) error {
				rows, err := a.engine.RiskRows(ctx, top)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to compute risk rows", err)
				}
				return out.Success(rows, func(w io.Writer) { printRiskRows(w, rows) })
			})
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "number of sites (default scoring.risk_top_n)")
	return cmd
}

func printRiskRows(w io.Writer, rows []domain.RiskRow) {
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{
			r.Site,
			r.Country,
			strconv.Itoa(r.SAECount),
			strconv.Itoa(r.MissingPages),
			strconv.Itoa(r.QueryLatency),
			formatScore(r.RiskScore),
			string(r.RiskLevel),
			strconv.Itoa(r.DQI),
			r.Recommendation,
		})
	}
	printTable(w, []string{"site", "country", "saes", "missing", "latency", "risk", "level", "dqi", "recommendation"}, table)
}

// NewHeatmapCommand creates the heatmap command.
func NewHeatmapCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "heatmap",
		Short: "Show missing-page counts of the top sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, a *app, out *OutputFormatter) error {
				cells, err := a.engine.RiskHeatmap(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to compute heatmap", err)
				}
				return out.Success(cells, func(w io.Writer) {
					rows := make([][]string, 0, len(cells))
					for _, c := range cells {
						rows = append(rows, []string{c.Site, strconv.Itoa(c.RiskScore)})
					}
					printTable(w, []string{"site", "missing pages"}, rows)
				})
			})
		},
	}
}

// NewPatientsCommand creates the patients command.
func NewPatientsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "patients <site>",
		Short: "Classify the subjects of a site as clean or dirty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, a *app, out *OutputFormatter) error {
				patients, err := a.engine.SitePatients(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "failed to classify patients", err)
				}
				return out.Success(patients, func(w io.Writer) { printPatients(w, patients) })
			})
		},
	}
}

func printPatients(w io.Writer, p domain.SitePatients) {
	fmt.Fprintf(w, "Site %s: %d of %d patients clean (%d%%)\n\n",
		p.SiteID, p.CleanPatientCount, p.TotalPatients, p.CleanPatientRate)

	rows := make([][]string, 0, len(p.Patients))
	for _, s := range p.Patients {
		clean := "no"
		if s.IsClean {
			clean = "yes"
		}
		rows = append(rows, []string{
			s.SubjectID,
			s.Status,
			clean,
			strconv.Itoa(s.MissingPages),
			strconv.Itoa(s.SAEPending),
			s.LastVisit,
		})
	}
	printTable(w, []string{"subject", "status", "clean", "missing", "sae pending", "last visit"}, rows)
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	var study string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize the stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, a *app, out *OutputFormatter) error {
				summary, err := a.engine.Summary(ctx, study)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to summarize records", err)
				}
				return out.Success(summary, func(w io.Writer) {
					printFields(w, [][2]string{
						{"Safety events", fmt.Sprintf("%d (%d pending)", summary.SafetyEvents, summary.PendingSAEs)},
						{"Missing pages", strconv.Itoa(summary.MissingPages)},
						{"Subject statuses", strconv.Itoa(summary.SubjectStatuses)},
						{"Mean days missing", formatScore(summary.AverageMissingDays)},
						{"Top missing site", summary.TopMissingSite},
					})
					if len(summary.ReviewStatuses) > 0 {
						fmt.Fprintln(w)
						rows := make([][]string, 0, len(summary.ReviewStatuses))
						for _, s := range summary.ReviewStatuses {
							rows = append(rows, []string{s.Status, strconv.Itoa(s.Count)})
						}
						printTable(w, []string{"review status", "count"}, rows)
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&study, "study", "", "restrict to one study id")
	return cmd
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
