package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the local movie catalog",
	}

	catalogCmd.AddCommand(newCatalogImportCommand(ctx))
	catalogCmd.AddCommand(newCatalogCountCommand(ctx))

	return catalogCmd
}

func newCatalogImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Seed the catalog from a CSV file",
		Long: `Seed the catalog from a CSV file with a header row.

Recognized columns: title, year, tmdb_id, imdb_id, director, genres, cast,
plot, poster_url, runtime, rated, studio, format, language, country and
imdb_rating. List columns are pipe-separated. Rows that match an existing
movie are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.catalog.ImportCSV(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d, existing %d, skipped %d\n",
				result.Inserted, result.Existing, result.Skipped)
			return nil
		},
	}
}

func newCatalogCountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of movies in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}
			n, err := svc.catalog.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
