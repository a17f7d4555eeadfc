package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joeyyy09/clinical-flow/internal/services"
	"github.com/joeyyy09/clinical-flow/pkg/contracts/domain"
)

// NewSiteCommand creates the site details command.
func NewSiteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "site <site>",
		Short: "Show DQI, patients and annotations of one site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, a *app, out *OutputFormatter) error {
				details, err := a.sites.Details(ctx, args[0])
				if err != nil {
					return serviceError("failed to load site details", err)
				}
				return out.Success(details, func(w io.Writer) {
					printDQI(w, details.Quality)
					fmt.Fprintln(w)
					printPatients(w, details.Patients)
					fmt.Fprintln(w)
					printAnnotations(w, details.Annotations)
				})
			})
		},
	}
}

// AnnotateOptions holds flags for the annotate command.
type AnnotateOptions struct {
	*RootOptions
	Comment string
	Tag     string
	Author  string
}

// NewAnnotateCommand creates the annotate command.
func NewAnnotateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnnotateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "annotate <site>",
		Short: "Attach a monitoring note to a site",
		Long: `Attach a free-text monitoring note to a site. Notes never change scores.

Examples:
  clinicalflow annotate 101 --comment "Coordinator on leave until May"
  clinicalflow annotate 204 --comment "Possible unreported SAE" --tag Urgent --author cra.smith`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app, out *OutputFormatter) error {
				note, err := a.sites.AddAnnotation(ctx, services.AnnotationInput{
					Site:    args[0],
					Comment: opts.Comment,
					Tag:     domain.AnnotationTag(opts.Tag),
					Author:  opts.Author,
				})
				if err != nil {
					return serviceError("failed to add annotation", err)
				}
				return out.Success(note, func(w io.Writer) {
					fmt.Fprintf(w, "Annotation %s added to site %s\n", note.ID, note.SiteNumber)
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Comment, "comment", "", "note text (required)")
	_ = cmd.MarkFlagRequired("comment")
	cmd.Flags().StringVar(&opts.Tag, "tag", string(domain.AnnotationTagInfo), "Info, Review or Urgent")
	cmd.Flags().StringVar(&opts.Author, "author", "", "who wrote the note")

	return cmd
}

// NewAnnotationsCommand creates the annotations listing command.
func NewAnnotationsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "annotations <site>",
		Short: "List the notes of a site, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, a *app, out *OutputFormatter) error {
				notes, err := a.sites.ListAnnotations(ctx, args[0])
				if err != nil {
					return serviceError("failed to list annotations", err)
				}
				return out.Success(notes, func(w io.Writer) { printAnnotations(w, notes) })
			})
		},
	}
}

func printAnnotations(w io.Writer, notes []domain.SiteAnnotation) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No annotations")
		return
	}
	rows := make([][]string, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, []string{
			n.CreatedAt.Format("2006-01-02 15:04"),
			string(n.Tag),
			n.Author,
			truncate(n.Comment, 80),
		})
	}
	printTable(w, []string{"created", "tag", "author", "comment"}, rows)
}

// serviceError maps input errors to the command-error exit code
func serviceError(message string, err error) error {
	if errors.Is(err, services.ErrInvalidInput) || errors.Is(err, services.ErrSiteRequired) {
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}
