package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snapshelf/snapshelf/internal/catalog"
	"github.com/snapshelf/snapshelf/internal/moviematch"
)

var errNoMatch = errors.New("no match found")

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var year int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "match <title>",
		Short: "Resolve a title against the catalog and metadata providers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}

			resp := svc.match.MatchTitle(cmd.Context(), strings.Join(args, " "), year)
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, resp)
			}
			if len(resp.Data) == 0 {
				return errNoMatch
			}
			printCandidates(out, resp)
			return nil
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "Release year hint")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw response as JSON")
	return cmd
}

func printCandidates(out io.Writer, resp moviematch.MatchResponse) {
	rows := make([][]string, 0, len(resp.Data))
	for i, c := range resp.Data {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Movie.Title,
			formatYear(c.Movie),
			string(c.MatchType),
			fmt.Sprintf("%.3f", c.Score),
			c.Movie.Director,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Title", "Year", "Match", "Score", "Director"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	))

	source := "resolved"
	if resp.Cached {
		source = "cached"
	}
	fmt.Fprintf(out, "%d result(s), %s in %.1fms\n", len(resp.Data), source, resp.QueryTimeMs)
}

func formatYear(m *catalog.Movie) string {
	if m.Year == 0 {
		return "-"
	}
	return strconv.Itoa(m.Year)
}

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "Suggest catalog titles for a partial or misspelled query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services(cmd.Context())
			if err != nil {
				return err
			}

			suggestions, err := svc.match.GetSuggestions(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(suggestions) == 0 {
				fmt.Fprintln(out, "No suggestions")
				return nil
			}
			for _, s := range suggestions {
				fmt.Fprintln(out, s)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", moviematch.DefaultSuggestionLimit, "Maximum number of suggestions")
	return cmd
}
