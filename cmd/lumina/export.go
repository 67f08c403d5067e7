// Export command writes the index contents to a file.
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lumina/internal/index"
	"lumina/internal/search"
)

var flagExportOut string

var exportCmd = &cobra.Command{
	Use:       "export <csv|txt>",
	Short:     "Export the index as CSV or plain text",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"csv", "txt"},
	RunE:      runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "output", "o", "", "output file (default lumina-export.<format>)")
}

func runExport(cmd *cobra.Command, args []string) error {
	format := args[0]
	if format != "csv" && format != "txt" {
		return fmt.Errorf("unknown format %q (valid: csv, txt)", format)
	}

	records, err := idx.All()
	if err != nil {
		return err
	}

	out := flagExportOut
	if out == "" {
		out = "lumina-export." + format
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	switch format {
	case "csv":
		err = exportCSV(f, records)
	case "txt":
		err = exportTXT(f, records)
	}
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(map[string]any{"file": out, "records": len(records)})
	}
	fmt.Printf("Exported %d records to %s\n", len(records), out)
	return nil
}

func exportCSV(w io.Writer, records []index.FileRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"path", "name", "size", "mime_type", "category",
		"modified", "label", "tags", "caption",
	}); err != nil {
		return err
	}
	for _, r := range records {
		modified := ""
		if !r.ModifiedDate.IsZero() {
			modified = r.ModifiedDate.Format(time.RFC3339)
		}
		if err := cw.Write([]string{
			r.Path, r.Name, strconv.FormatInt(r.Size, 10), r.MIMEType,
			r.Category, modified, r.Label,
			strings.Join(r.Tags, ";"), r.Caption,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportTXT(w io.Writer, records []index.FileRecord) error {
	for _, r := range records {
		line := fmt.Sprintf("%s (%s", r.Path, search.FormatSize(r.Size))
		if r.Label != "" {
			line += ", " + r.Label
		}
		line += ")"
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
