// Show command prints everything the index knows about one file.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lumina/internal/search"
)

var showCmd = &cobra.Command{
	Use:   "show <path-or-name>",
	Short: "Show the indexed record for a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := findRecord(args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(rec)
		}

		fmt.Println("Path:     ", rec.Path)
		fmt.Println("Size:     ", search.FormatSize(rec.Size))
		fmt.Println("Type:     ", rec.MIMEType)
		fmt.Println("Category: ", rec.Category)
		if !rec.OriginalDate.IsZero() {
			fmt.Println("Original: ", rec.OriginalDate.Format("2006-01-02 15:04"))
		}
		if !rec.ModifiedDate.IsZero() {
			fmt.Println("Modified: ", rec.ModifiedDate.Format("2006-01-02 15:04"))
		}
		if rec.Label != "" {
			fmt.Println("Label:    ", rec.Label)
		}
		if len(rec.Tags) > 0 {
			fmt.Println("Tags:     ", strings.Join(rec.Tags, ", "))
		}
		if len(rec.UserTags) > 0 {
			fmt.Println("Your tags:", strings.Join(rec.UserTags, ", "))
		}
		if rec.Caption != "" {
			fmt.Println("Caption:  ", rec.Caption)
		}
		if rec.HasOCR && rec.OCRText != "" {
			preview := rec.OCRText
			if len(preview) > 300 {
				preview = preview[:300] + "..."
			}
			fmt.Println("Text:     ", preview)
		}
		return nil
	},
}
