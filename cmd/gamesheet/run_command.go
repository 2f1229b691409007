package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var sheetID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute or resume a reconciliation run over a sheet",
		Long: strings.TrimSpace(`
Reads the title column, resolves each unprocessed row against the IGDB
catalog, and writes game metadata back to the output columns. Interrupting
the run is safe: re-invoking resumes from the first unprocessed row.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, cleanup, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			defer cleanup()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := pipeline.engine.Run(runCtx, sheetID)
			if summary != nil && (err == nil || summary.Processed > 0) {
				fmt.Fprintln(cmd.OutOrStdout(), renderSummaryTable(summary))
			}
			if err != nil {
				if errors.Is(err, runCtx.Err()) {
					fmt.Fprintln(cmd.OutOrStdout(), "Run interrupted; re-invoke to resume.")
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sheetID, "sheet", "", "Spreadsheet identifier")
	_ = cmd.MarkFlagRequired("sheet")
	return cmd
}
