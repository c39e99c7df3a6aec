package main

import (
	"fmt"

	"github.com/diasulisses/fiscal-fetch/internal/profile"
	"github.com/diasulisses/fiscal-fetch/internal/query"
	"github.com/spf13/cobra"
)

var (
	queryProfile string
	queryRange   string
	querySelf    string
)

// queryCmd compiles and prints the Gmail query without authenticating,
// so a profile can be checked before a real run.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print the Gmail query a run would use",
	Example: `  ff query --date-range 2024
  ff query --profile marketing-agency --date-range 2024-01-01:2024-06-30 --self me@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prof, err := profile.Load(profilesDir, queryProfile)
		if err != nil {
			return err
		}
		q, err := query.Build(prof, queryRange, querySelf)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), q)
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryProfile, "profile", profile.DefaultName, "Search profile name")
	queryCmd.Flags().StringVar(&queryRange, "date-range", "", "Date window: YYYY or YYYY-MM-DD:YYYY-MM-DD")
	queryCmd.Flags().StringVar(&querySelf, "self", "", "Your address, excluded from results (omitted when unknown)")
	queryCmd.MarkFlagRequired("date-range")
	rootCmd.AddCommand(queryCmd)
}
