// Cleanup command removes index entries whose files are gone.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove index entries for deleted files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var progress func(current, total int)
		if !flagJSON {
			progress = func(current, total int) {
				fmt.Printf("\rChecking %d/%d", current, total)
			}
		}

		stats, err := idx.CleanupStale(progress)
		if err != nil {
			return err
		}
		if !flagJSON && stats.Checked > 0 {
			fmt.Println()
		}

		if flagJSON {
			return printJSON(stats)
		}
		fmt.Printf("Checked %d entries, removed %d stale\n", stats.Checked, stats.Removed)
		return nil
	},
}
