// Tags command manages user tags on indexed files.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage your tags on indexed files",
}

var tagsAddCmd = &cobra.Command{
	Use:   "add <path-or-name> <tag...>",
	Short: "Add tags to a file",
	Long: `Add attaches your own tags to an indexed file. User tags are searchable
with the tag: operator alongside AI-generated ones and survive
re-indexing.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := findRecord(args[0])
		if err != nil {
			return err
		}

		tags := make([]string, 0, len(args)-1)
		for _, t := range args[1:] {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				tags = append(tags, t)
			}
		}
		if len(tags) == 0 {
			return fmt.Errorf("no tags given")
		}

		if err := idx.AddTags(rec.ID, tags); err != nil {
			return err
		}
		if flagJSON {
			return printJSON(map[string]any{"path": rec.Path, "added": tags})
		}
		fmt.Printf("Tagged %s: %s\n", rec.Name, strings.Join(tags, ", "))
		return nil
	},
}

func init() {
	tagsCmd.AddCommand(tagsAddCmd)
}
