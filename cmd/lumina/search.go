// Search command runs a natural language query against the index.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var flagSearchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search the index in natural language",
	Long: `Search understands plain keywords plus dates ("invoices from last week",
"photos from december 2024"), type words ("pdfs", "screenshots"), and
operators:

  type:<label>   files the AI labeled, e.g. type:invoice
  tag:<tag>      files carrying a tag
  has:ocr        files with extracted text
  has:ai         files with AI labels or captions

Keyword and semantic matches are merged, best first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&flagSearchLimit, "limit", "n", 20, "maximum results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	results, err := newService().Search(cmd.Context(), query, flagSearchLimit)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(results)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, r := range results {
		marker := " "
		if !r.Exists {
			marker = "!"
		}
		fmt.Printf("%2d.%s %s  (%s", i+1, marker, r.Path, r.SizeHuman)
		if r.Label != "" {
			fmt.Printf(", %s", r.Label)
		}
		if r.Relevance > 0 {
			fmt.Printf(", %.0f%%", r.Relevance*100)
		}
		fmt.Println(")")
		if r.Caption != "" {
			fmt.Printf("     %s\n", r.Caption)
		}
	}
	return nil
}
