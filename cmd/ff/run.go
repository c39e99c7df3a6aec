package main

import (
	"context"
	"encoding/json"

	"github.com/diasulisses/fiscal-fetch/internal/auth"
	"github.com/diasulisses/fiscal-fetch/internal/display"
	"github.com/diasulisses/fiscal-fetch/internal/gmail"
	"github.com/diasulisses/fiscal-fetch/internal/profile"
	fsync "github.com/diasulisses/fiscal-fetch/internal/sync"
	"github.com/diasulisses/fiscal-fetch/internal/types"
	"github.com/spf13/cobra"
)

var (
	runProfile string
	runRange   string
	runDry     bool
	runForce   bool
	runReport  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch matching attachments from Gmail",
	Long: `Search Gmail with the selected profile and date range, download the
attachments of every new thread, and record the outcome in the audit
log. Already processed threads are skipped; re-running is safe.`,
	Example: `  ff run --date-range 2024
  ff run --profile marketing-agency --date-range 2024-01-01:2024-06-30
  ff run --date-range 2024 --dry-run
  ff run --date-range 2024 --force-rescan
  ff run --date-range 2024 --generate-report`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg := types.RunConfig{
			Profile:     runProfile,
			DateRange:   runRange,
			OutputDir:   outputDir,
			DryRun:      runDry,
			ForceRescan: runForce,
			Report:      runReport,
		}

		prof, err := profile.Load(profilesDir, cfg.Profile)
		if err != nil {
			return err
		}

		session, err := auth.NewSession(ctx, credDir)
		if err != nil {
			display.ErrorMsg("could not connect to Gmail: %v", err)
			return err
		}
		if !quietFlag {
			display.Header("Fiscal Fetch")
			display.Detail("profile", cfg.Profile)
			display.Detail("account", session.Email)
		}

		engine := &fsync.Engine{
			Client: gmail.NewClient(session.Service),
			Self:   session.Email,
			Quiet:  quietFlag,
		}

		res, err := engine.Run(ctx, cfg, prof)
		if err != nil {
			display.ErrorMsg("sync failed: %v", err)
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		if !quietFlag {
			display.SuccessMsg("Done! %d saved, %d skipped, %d errors (%d of %d threads were new).",
				res.Saved, res.Skipped, res.Errors, res.ThreadsNew, res.ThreadsFound)
			if res.ReportPath != "" {
				display.Detail("report", res.ReportPath)
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runProfile, "profile", profile.DefaultName, "Search profile name")
	runCmd.Flags().StringVar(&runRange, "date-range", "", "Date window: YYYY or YYYY-MM-DD:YYYY-MM-DD")
	runCmd.Flags().BoolVar(&runDry, "dry-run", false, "Log intents without downloading or touching the index")
	runCmd.Flags().BoolVar(&runForce, "force-rescan", false, "Ignore the processed index when selecting threads")
	runCmd.Flags().BoolVar(&runReport, "generate-report", false, "Save raw emails and write a per-message report CSV")
	runCmd.MarkFlagRequired("date-range")
	rootCmd.AddCommand(runCmd)
}
