package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"gamesheet/internal/runstate"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var sheetID string
	var showAll bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show row-level run state for a sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer cleanup()

			rows, err := store.Rows(cmd.Context(), sheetID)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No run state recorded for sheet %s.\n", sheetID)
				return nil
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			display := rows
			if !showAll {
				display = display[:0:0]
				for _, row := range rows {
					if row.Status != runstate.StatusMatched {
						display = append(display, row)
					}
				}
			}
			if len(display) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderStatusTable(display, cfg.Sheets.HeaderRows))
			}

			summary, err := store.Summary(cmd.Context(), sheetID)
			if err != nil {
				return err
			}
			statuses := make([]string, 0, len(summary))
			for status := range summary {
				statuses = append(statuses, string(status))
			}
			sort.Strings(statuses)
			for _, status := range statuses {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", status, summary[runstate.Status(status)])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sheetID, "sheet", "", "Spreadsheet identifier")
	cmd.Flags().BoolVar(&showAll, "all", false, "Include matched rows in the table")
	_ = cmd.MarkFlagRequired("sheet")
	return cmd
}
