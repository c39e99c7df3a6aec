package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	outputDir   string
	profilesDir string
	credDir     string
	jsonOutput  bool
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "ff",
	Short: "ff - fetch financial documents from Gmail",
	Long: `Fiscal Fetch: search Gmail for financial documents, download their
attachments into a dated folder tree, and keep an audit trail so runs
are incremental and reversible.

One process per output directory at a time: the index, audit log and
download tree are shared files with no locking.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ff version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "fiscal_fetch_output", "Root directory for downloads, logs and reports")
	rootCmd.PersistentFlags().StringVar(&profilesDir, "profiles-dir", "profiles", "Directory containing search profile JSON files")
	rootCmd.PersistentFlags().StringVar(&credDir, "credentials", ".", "Directory containing credentials.json and token.json")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output summaries in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
