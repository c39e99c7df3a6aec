package main

import (
	"encoding/json"

	"github.com/diasulisses/fiscal-fetch/internal/display"
	"github.com/diasulisses/fiscal-fetch/internal/reset"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset [PERIOD]",
	Short: "Delete downloaded files for a period and prune the index",
	Long: `Undo previous runs for a period, using the audit log as the record of
what was downloaded. Matching files and report CSVs are deleted and the
corresponding thread ids are removed from the processed index, so the
next run fetches them again.

PERIOD is 'all' (default), a year (2024), or a year-month (2024-05),
matched against each record's email date.`,
	Example: `  ff reset
  ff reset 2024
  ff reset 2024-05`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		period := reset.PeriodAll
		if len(args) == 1 {
			period = args[0]
		}

		res, err := reset.Run(outputDir, period, quietFlag)
		if err != nil {
			display.ErrorMsg("reset failed: %v", err)
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		if !quietFlag {
			display.SuccessMsg("Reset %q: %d files and %d reports deleted, %d threads forgotten.",
				res.Period, res.FilesDeleted, res.ReportsDeleted, res.ThreadsRemoved)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
