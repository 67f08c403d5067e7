// History command lists past searches and past move operations.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lumina/internal/mover"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:       "history <search|moves>",
	Short:     "Show search history or past move operations",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"search", "moves"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "search":
			return showSearchHistory()
		case "moves":
			return showMoveHistory()
		default:
			return fmt.Errorf("unknown history kind %q (valid: search, moves)", args[0])
		}
	},
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "maximum entries")
}

func showSearchHistory() error {
	entries, err := idx.SearchHistory(flagHistoryLimit)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No searches yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %q (%d results)\n",
			e.Timestamp.Format("2006-01-02 15:04"), e.Query, e.ResultsCount)
	}
	return nil
}

func showMoveHistory() error {
	entries, err := mover.History(movesDir())
	if err != nil {
		return err
	}
	if len(entries) > flagHistoryLimit {
		entries = entries[:flagHistoryLimit]
	}
	if flagJSON {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No move operations yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %d/%d files moved  (%s)\n",
			e.Timestamp, e.SuccessfulMoves, e.TotalFiles, e.LogFile)
	}
	return nil
}
