package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"siteaudit/internal/bootstrap"
)

func newAdvertCmd(dataPath *string) *cobra.Command {
	advert := &cobra.Command{Use: "advert", Short: "Advert moderation"}

	// withAdverts fails early when the advert database could not open.
	withAdverts := func(fn func(ctx context.Context, app *bootstrap.App) error) error {
		return withApp(*dataPath, func(ctx context.Context, app *bootstrap.App) error {
			if app.AdvertErr != nil {
				return app.AdvertErr
			}
			return fn(ctx, app)
		})
	}

	var status string
	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List adverts, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdverts(func(ctx context.Context, app *bootstrap.App) error {
				adverts, err := app.AdvertCLI.List(ctx, status)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(adverts)
				}
				if len(adverts) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no adverts")
					return nil
				}
				for _, a := range adverts {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Status, a.BusinessName, a.Email, a.CreatedAt.Format("2006-01-02"))
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "filter: pending|active|rejected")
	list.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	advert.AddCommand(list)

	advert.AddCommand(&cobra.Command{
		Use:   "status <id> <active|rejected>",
		Short: "Approve or reject an advert",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdverts(func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.AdvertCLI.SetStatus(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", out.ID, out.Status)
				return nil
			})
		},
	})
	return advert
}
