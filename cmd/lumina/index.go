// Index command scans a directory into the file index.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lumina/internal/search"
)

var flagIndexForce bool

var indexCmd = &cobra.Command{
	Use:   "index <directory>",
	Short: "Index a directory of files",
	Long: `Index walks the directory and records every eligible file: metadata,
extracted text, optional OCR, optional AI labels, and an embedding for
semantic search. Files whose content is unchanged since the last run
are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagIndexForce, "force", false, "reprocess unchanged files")
}

func runIndex(cmd *cobra.Command, args []string) error {
	svc := newService()

	var progress search.ProgressFunc
	if !flagJSON {
		progress = func(done, total int, message string) {
			fmt.Printf("\r[%d/%d] %-60.60s", done, total, message)
		}
	}

	stats, err := svc.IndexDirectory(cmd.Context(), args[0], flagIndexForce, progress)
	if err != nil {
		return err
	}
	if !flagJSON && stats.Total > 0 {
		fmt.Println()
	}

	if flagJSON {
		return printJSON(stats)
	}
	fmt.Printf("Indexed %d, skipped %d of %d files", stats.Indexed, stats.Skipped, stats.Total)
	if stats.WithOCR > 0 {
		fmt.Printf(" (%d with OCR text)", stats.WithOCR)
	}
	fmt.Println()
	for _, e := range stats.Errors {
		fmt.Println("  error:", e)
	}
	return nil
}
