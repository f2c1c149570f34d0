package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"siteaudit/internal/bootstrap"
	auditdto "siteaudit/internal/modules/audit/dto"
)

func newReportCmd(dataPath *string) *cobra.Command {
	report := &cobra.Command{Use: "report", Short: "Audit report lifecycle"}

	// mutate wires a report command whose result is a session change.
	mutate := func(use, short string, args cobra.PositionalArgs, run func(ctx context.Context, app *bootstrap.App, args []string) (auditdto.MutationOutput, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withReport(*dataPath, func(ctx context.Context, app *bootstrap.App) error {
					out, err := run(ctx, app, args)
					if err != nil {
						return err
					}
					printSession(cmd.OutOrStdout(), out.Session)
					printWarning(cmd.OutOrStdout(), out.Warning)
					return nil
				})
			},
		}
	}

	report.AddCommand(mutate("start", "Start a report, or continue the stored one", cobra.NoArgs,
		func(ctx context.Context, app *bootstrap.App, _ []string) (auditdto.MutationOutput, error) {
			return app.AuditCLI.Start(ctx)
		}))

	var confirm bool
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Discard the current report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withReport(*dataPath, func(ctx context.Context, app *bootstrap.App) error {
				session, err := app.AuditCLI.NewReport(ctx, confirm)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), session)
				return nil
			})
		},
	}
	newCmd.Flags().BoolVar(&confirm, "yes", false, "discard captured images without asking")
	report.AddCommand(newCmd)

	var captureTitle, device string
	capture := &cobra.Command{
		Use:   "capture",
		Short: "Capture a still from the camera",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withReport(*dataPath, func(ctx context.Context, app *bootstrap.App) error {
				if _, err := app.CameraCLI.Start(ctx, device); err != nil {
					return err
				}
				defer func() { _, _ = app.CameraCLI.Stop(ctx) }()
				out, err := app.AuditCLI.Capture(ctx, captureTitle)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), out.Session)
				printWarning(cmd.OutOrStdout(), out.Warning)
				return nil
			})
		},
	}
	capture.Flags().StringVar(&captureTitle, "title", "", "image title")
	capture.Flags().StringVar(&device, "device", "", "camera device id")
	report.AddCommand(capture)

	var importTitle string
	importCmd := mutate("import <path>", "Add an image file as a capture", cobra.ExactArgs(1),
		func(ctx context.Context, app *bootstrap.App, args []string) (auditdto.MutationOutput, error) {
			return app.AuditCLI.Import(ctx, args[0], importTitle)
		})
	importCmd.Flags().StringVar(&importTitle, "title", "", "image title")
	report.AddCommand(importCmd)

	report.AddCommand(mutate("title <n> <title>", "Rename image n", cobra.MinimumNArgs(2),
		func(ctx context.Context, app *bootstrap.App, args []string) (auditdto.MutationOutput, error) {
			pos, err := positionArg(args[0])
			if err != nil {
				return auditdto.MutationOutput{}, err
			}
			return app.AuditCLI.Rename(ctx, pos, strings.Join(args[1:], " "))
		}))

	report.AddCommand(mutate("delete <n>", "Remove image n", cobra.ExactArgs(1),
		func(ctx context.Context, app *bootstrap.App, args []string) (auditdto.MutationOutput, error) {
			pos, err := positionArg(args[0])
			if err != nil {
				return auditdto.MutationOutput{}, err
			}
			return app.AuditCLI.Delete(ctx, pos)
		}))

	var annotateStrokes []string
	annotate := mutate("annotate <n>", "Draw strokes onto image n", cobra.ExactArgs(1),
		func(ctx context.Context, app *bootstrap.App, args []string) (auditdto.MutationOutput, error) {
			pos, err := positionArg(args[0])
			if err != nil {
				return auditdto.MutationOutput{}, err
			}
			strokes, err := parseStrokes(annotateStrokes)
			if err != nil {
				return auditdto.MutationOutput{}, err
			}
			return app.AuditCLI.Annotate(ctx, pos, strokes)
		})
	annotate.Flags().StringArrayVar(&annotateStrokes, "stroke", nil, "stroke as x,y:x,y:... in image pixels (repeatable)")
	report.AddCommand(annotate)

	report.AddCommand(mutate("clear-annotation <n>", "Restore image n to its captured state", cobra.ExactArgs(1),
		func(ctx context.Context, app *bootstrap.App, args []string) (auditdto.MutationOutput, error) {
			pos, err := positionArg(args[0])
			if err != nil {
				return auditdto.MutationOutput{}, err
			}
			return app.AuditCLI.ClearAnnotation(ctx, pos)
		}))

	report.AddCommand(mutate("inspector <name>", "Set the inspector name", cobra.MinimumNArgs(1),
		func(ctx context.Context, app *bootstrap.App, args []string) (auditdto.MutationOutput, error) {
			return app.AuditCLI.SetInspector(ctx, strings.Join(args, " "))
		}))

	report.AddCommand(mutate("date <YYYY-MM-DD>", "Set the report date", cobra.ExactArgs(1),
		func(ctx context.Context, app *bootstrap.App, args []string) (auditdto.MutationOutput, error) {
			return app.AuditCLI.SetDate(ctx, args[0])
		}))

	var signStrokes []string
	sign := mutate("sign", "Draw the signature", cobra.NoArgs,
		func(ctx context.Context, app *bootstrap.App, _ []string) (auditdto.MutationOutput, error) {
			strokes, err := parseStrokes(signStrokes)
			if err != nil {
				return auditdto.MutationOutput{}, err
			}
			return app.AuditCLI.Sign(ctx, strokes)
		})
	sign.Flags().StringArrayVar(&signStrokes, "stroke", nil, "stroke as x,y:x,y:... in pad pixels (repeatable)")
	report.AddCommand(sign)

	report.AddCommand(mutate("import-signature <path>", "Use an image file as the signature", cobra.ExactArgs(1),
		func(ctx context.Context, app *bootstrap.App, args []string) (auditdto.MutationOutput, error) {
			return app.AuditCLI.ImportSignature(ctx, args[0])
		}))

	report.AddCommand(mutate("clear-signature", "Remove the signature", cobra.NoArgs,
		func(ctx context.Context, app *bootstrap.App, _ []string) (auditdto.MutationOutput, error) {
			return app.AuditCLI.ClearSignature(ctx)
		}))

	report.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Render the report to PDF",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withReport(*dataPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.AuditCLI.Export(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %s pages=%d\n", out.Path, out.Pages)
				if out.NotePath != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "note %s\n", out.NotePath)
				}
				for _, s := range out.Skipped {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "skipped %d %q: %s\n", s.Position, s.Title, s.Reason)
				}
				printWarning(cmd.OutOrStdout(), out.Warning)
				return nil
			})
		},
	})

	report.AddCommand(&cobra.Command{
		Use:   "inspect <pdf>",
		Short: "Check an exported PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataPath, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.AuditCLI.Inspect(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "path=%s valid=%t pages=%d\n", out.Path, out.Valid, out.Pages)
				if out.Problem != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "problem: %s\n", out.Problem)
				}
				if out.FirstPage != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "first page:\n%s\n", out.FirstPage)
				}
				return nil
			})
		},
	})

	report.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the stored report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withReport(*dataPath, func(ctx context.Context, app *bootstrap.App) error {
				session, err := app.AuditCLI.Status(ctx)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), session)
				return nil
			})
		},
	})
	return report
}

func printSession(w io.Writer, s auditdto.SessionOutput) {
	if !s.Started {
		_, _ = fmt.Fprintln(w, "no report in progress")
		return
	}
	_, _ = fmt.Fprintf(w, "inspector=%q date=%s signed=%t images=%d\n", s.InspectorName, s.ReportDate, s.HasSignature, len(s.Images))
	for _, img := range s.Images {
		mark := ""
		if img.Annotated {
			mark = " annotated"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%dKB%s\n", img.Position, img.Title, img.Bytes/1024, mark)
	}
	if len(s.Missing) > 0 {
		_, _ = fmt.Fprintf(w, "missing: %s\n", strings.Join(s.Missing, ", "))
	}
}

func printWarning(w io.Writer, warning string) {
	if warning != "" {
		_, _ = fmt.Fprintf(w, "warning: %s\n", warning)
	}
}
