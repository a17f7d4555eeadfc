package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/joeyyy09/clinical-flow/internal/services"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the store and data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, a *app, out *OutputFormatter) error {
				status := a.statusService().Check(ctx)
				if err := out.Success(status, func(w io.Writer) {
					fmt.Fprintf(w, "Status: %s (version %s, %s store)\n", status.Status, status.Version, status.Driver)

					names := make([]string, 0, len(status.Services))
					for name := range status.Services {
						names = append(names, name)
					}
					sort.Strings(names)
					rows := make([][]string, 0, len(names))
					for _, name := range names {
						svc := status.Services[name]
						rows = append(rows, []string{name, svc.Status, svc.Message})
					}
					printTable(w, []string{"component", "status", "message"}, rows)

					if r := status.Records; r != nil {
						fmt.Fprintf(w, "\nRecords: %d safety events, %d missing pages, %d subject statuses, %d annotations\n",
							r.SafetyEvents, r.MissingPages, r.SubjectStatuses, r.Annotations)
					}
				}); err != nil {
					return err
				}
				if status.Status != services.StatusReady {
					return NewExitError(ExitFailure, "not ready")
				}
				return nil
			})
		},
	}
}
