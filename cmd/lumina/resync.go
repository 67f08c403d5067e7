// Resync command refreshes file dates from disk and metadata.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Re-read file dates for every indexed file",
	Long: `Resync re-reads filesystem timestamps and re-extracts original dates
(EXIF and document metadata) for every indexed file. Useful after
restoring files from a backup, which resets modification times.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var progress func(current, total int)
		if !flagJSON {
			progress = func(current, total int) {
				fmt.Printf("\rResyncing %d/%d", current, total)
			}
		}

		stats, err := idx.ResyncDates(progress)
		if err != nil {
			return err
		}
		if !flagJSON && stats.Updated > 0 {
			fmt.Println()
		}

		if flagJSON {
			return printJSON(stats)
		}
		fmt.Printf("Updated %d files (%d with metadata dates, %d missing, %d errors)\n",
			stats.Updated, stats.MetadataDates, stats.NotFound, stats.Errors)
		return nil
	},
}
