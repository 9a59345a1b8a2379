package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	memoryMode bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Content strategy & performance engine",
	Long: `Content Strategy Engine CLI

Scores published posts, ranks keyword opportunities, runs A/B
experiments, publishes due posts and writes weekly strategy reports.

Usage:
  go run ./cmd/strategy [command]

Examples:
  go run ./cmd/strategy api
  go run ./cmd/strategy scheduler start
  go run ./cmd/strategy score
  go run ./cmd/strategy report --persist
  go run ./cmd/strategy --memory api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&memoryMode, "memory", false, "use the in-process store instead of PostgreSQL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
