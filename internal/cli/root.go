package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Driver earnings ledger tools",
	Long:  "Bulk import historical shifts and print the weighted monthly plan.",
}

func init() {
	rootCmd.PersistentFlags().String("env", "", "path to an env file (default: .env when present)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log debug output to stderr")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(importSheetCmd)
	rootCmd.AddCommand(planCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
