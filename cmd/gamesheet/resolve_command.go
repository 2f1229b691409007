package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gamesheet/internal/match"
)

// newResolveCommand is a debugging aid: resolve a single title without
// touching any sheet or run state.
func newResolveCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <title>",
		Short: "Resolve one title against the catalog and print the outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, cleanup, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			defer cleanup()

			title := strings.TrimSpace(args[0])
			candidates, err := pipeline.catalog.Search(cmd.Context(), title)
			if err != nil {
				return err
			}
			matcher := match.New(pipeline.cfg)
			outcome := matcher.Resolve(title, candidates)

			out := cmd.OutOrStdout()
			switch outcome.Decision {
			case match.DecisionMatched:
				if err := pipeline.catalog.Hydrate(cmd.Context(), &outcome.Best.Candidate); err != nil {
					return err
				}
				candidate := outcome.Best.Candidate
				fmt.Fprintf(out, "Matched %q (score %.2f)\n", candidate.Name, outcome.Best.Score)
				if candidate.Summary != "" {
					fmt.Fprintf(out, "  Summary:    %s\n", candidate.Summary)
				}
				if len(candidate.Genres) > 0 {
					fmt.Fprintf(out, "  Genres:     %s\n", strings.Join(candidate.Genres, ", "))
				}
				if len(candidate.Keywords) > 0 {
					fmt.Fprintf(out, "  Keywords:   %s\n", strings.Join(candidate.Keywords, ", "))
				}
				if candidate.Rating > 0 {
					fmt.Fprintf(out, "  Rating:     %.1f\n", candidate.Rating)
				}
				if candidate.StorefrontURL != "" {
					fmt.Fprintf(out, "  Storefront: %s\n", candidate.StorefrontURL)
				}
			case match.DecisionAmbiguous:
				fmt.Fprintf(out, "Ambiguous: %d candidates\n", len(outcome.Candidates))
				rows := make([][]string, 0, len(outcome.Candidates))
				for _, entry := range outcome.Candidates {
					rows = append(rows, []string{
						entry.Candidate.Name,
						fmt.Sprintf("%.2f", entry.Score),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Candidate", "Score"}, rows,
					[]columnAlignment{alignLeft, alignRight}))
			default:
				fmt.Fprintf(out, "No match for %q (%d candidates considered)\n", title, len(candidates))
			}
			return nil
		},
	}
	return cmd
}
