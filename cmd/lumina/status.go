// Status command summarizes the index and configuration.
package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"lumina/internal/search"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics and active configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := idx.Statistics()
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(map[string]any{
				"data_dir":       dataDir,
				"ai_provider":    cfg.GetString(cfgKeyAIProvider),
				"files":          stats.TotalFiles,
				"files_with_ocr": stats.FilesWithOCR,
				"total_bytes":    stats.TotalBytes,
				"categories":     stats.Categories,
			})
		}

		fmt.Println("Data dir:    ", dataDir)
		fmt.Println("AI provider: ", cfg.GetString(cfgKeyAIProvider))
		fmt.Printf("Files:        %d (%s)\n", stats.TotalFiles, search.FormatSize(stats.TotalBytes))
		fmt.Printf("With OCR:     %d\n", stats.FilesWithOCR)

		if len(stats.Categories) > 0 {
			names := make([]string, 0, len(stats.Categories))
			for name := range stats.Categories {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Println("Categories:")
			for _, name := range names {
				label := name
				if label == "" {
					label = "(none)"
				}
				fmt.Printf("  %-14s %d\n", label, stats.Categories[name])
			}
		}
		return nil
	},
}
