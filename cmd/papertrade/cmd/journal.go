package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/papertrade/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query journal data",
	Long: `Query and display journal records from a SQLite database.

Subcommands:
  fills  - List recorded order fills
  equity - List equity snapshots

Examples:
  papertrade journal fills --db replay.sqlite
  papertrade journal equity --db replay.sqlite`,
}

var journalFillsCmd = &cobra.Command{
	Use:   "fills",
	Short: "List recorded order fills",
	Args:  cobra.NoArgs,
	RunE:  runJournalFills,
}

var journalEquityCmd = &cobra.Command{
	Use:   "equity",
	Short: "List equity snapshots",
	Args:  cobra.NoArgs,
	RunE:  runJournalEquity,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalFillsCmd)
	journalCmd.AddCommand(journalEquityCmd)

	journalCmd.PersistentFlags().StringVar(&journalDBPath, "db", "", "path to SQLite journal (required)")
	journalCmd.MarkPersistentFlagRequired("db")
}

func runJournalFills(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	fills, err := j.ListFills()
	if err != nil {
		return fmt.Errorf("list fills: %w", err)
	}
	if len(fills) == 0 {
		fmt.Println("No fills recorded.")
		return nil
	}

	fmt.Printf("%-28s %-10s %-5s %-7s %12s %12s\n", "ORDER", "PAIR", "SIDE", "TYPE", "QUANTITY", "PRICE")
	for _, f := range fills {
		fmt.Printf("%-28s %-10s %-5s %-7s %12s %12s\n",
			f.OrderID, f.Pair, f.Side, f.Type, f.Quantity.String(), f.Price.String())
	}
	return nil
}

func runJournalEquity(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	snapshots, err := j.ListEquity()
	if err != nil {
		return fmt.Errorf("list equity: %w", err)
	}
	if len(snapshots) == 0 {
		fmt.Println("No equity snapshots recorded.")
		return nil
	}

	fmt.Printf("%-25s %14s %14s\n", "TIME", "CASH", "BUYING POWER")
	for _, s := range snapshots {
		fmt.Printf("%-25s %14s %14s\n",
			s.Time.Format(time.RFC3339), s.Cash.String(), s.BuyingPower.String())
	}
	return nil
}
