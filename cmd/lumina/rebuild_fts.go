// Rebuild-fts command repopulates the full-text index.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildFTSCmd = &cobra.Command{
	Use:   "rebuild-fts",
	Short: "Rebuild the full-text search index",
	Long: `Rebuild-fts drops and repopulates the full-text index from the files
table. Use it when searches error with a corrupted-index message; file
records and AI enrichment are untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := idx.RebuildFTS()
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(stats)
		}
		fmt.Printf("Rebuilt full-text index for %d files\n", stats.Indexed)
		return nil
	},
}
