package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "A paper-trading broker and market replay tool",
	Long: `Papertrade is a simulated broker and trading environment written in Go.

It provides tools for:
  - Placing market and limit orders against a simulated broker
  - Replaying historical bar data through a time-driven environment
  - Tracking settled balances and reserved buying power per asset
  - Journaling fills and equity curves to CSV or SQLite
  - Talking to an Alpaca paper account through the same interfaces

Complete documentation is available at https://github.com/rustyeddy/papertrade`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
