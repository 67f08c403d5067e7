// Organize command plans and executes a model-proposed organization of a
// directory. The model only ever proposes; every plan is validated here
// before any file moves.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"lumina/internal/classify"
	"lumina/internal/index"
	"lumina/internal/mover"
	"lumina/internal/planner"
	"lumina/internal/search"
)

var (
	flagOrgInstruction string
	flagOrgDest        string
	flagOrgDryRun      bool
	flagOrgYes         bool
	flagOrgExisting    bool
)

var organizeCmd = &cobra.Command{
	Use:   "organize <directory>",
	Short: "Organize a directory into folders proposed by the AI",
	Long: `Organize indexes the files directly inside the directory, asks the
configured AI provider for a folder plan, validates it, and moves the
files after your approval. Every move is logged and can be undone with
"lumina undo".`,
	Args: cobra.ExactArgs(1),
	RunE: runOrganize,
}

func init() {
	organizeCmd.Flags().StringVarP(&flagOrgInstruction, "instruction", "i", "", "how to organize, in your own words")
	organizeCmd.Flags().StringVar(&flagOrgDest, "dest", "", "destination root (default: the directory itself)")
	organizeCmd.Flags().BoolVar(&flagOrgDryRun, "dry-run", false, "show the plan without moving anything")
	organizeCmd.Flags().BoolVarP(&flagOrgYes, "yes", "y", false, "skip the confirmation prompt")
	organizeCmd.Flags().BoolVar(&flagOrgExisting, "existing-only", false, "only use folders that already exist in the destination")
}

func runOrganize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	dest := dir
	if flagOrgDest != "" {
		if dest, err = filepath.Abs(flagOrgDest); err != nil {
			return err
		}
	}

	client, err := newPlannerClient()
	if err != nil {
		return fmt.Errorf("organize needs an AI provider: %w", err)
	}

	svc := newService()
	records, err := organizeCandidates(cmd, svc, dir)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("Nothing to organize.")
		return nil
	}

	instruction := flagOrgInstruction
	if instruction == "" {
		instruction = "Organize all files into logical folders based on file type and content"
	}

	existing := existingFolders(dest)
	plan, err := planner.RequestPlan(ctx, client, instruction, records)
	if err != nil {
		return err
	}

	valid := make(map[int64]struct{}, len(records))
	filesByID := make(map[int64]index.FileRecord, len(records))
	for _, r := range records {
		valid[r.ID] = struct{}{}
		filesByID[r.ID] = r
	}

	var moves []planner.Move
	for {
		if flagOrgExisting {
			plan.MatchExistingFolders(existing)
		}
		if errs := plan.Validate(valid); len(errs) > 0 {
			return fmt.Errorf("plan rejected:\n  %s", strings.Join(errs, "\n  "))
		}

		printPlan(plan, filesByID)

		moves = plan.ToMoves(filesByID, dest)
		if len(moves) == 0 {
			fmt.Println("All files already in place.")
			return nil
		}
		if flagOrgDryRun {
			fmt.Printf("Dry run: %d files would move.\n", len(moves))
			return nil
		}

		if errs := mover.ValidateMoves(moves); len(errs) > 0 {
			return fmt.Errorf("moves rejected:\n  %s", strings.Join(errs, "\n  "))
		}
		if err := mover.CheckDestination(dest); err != nil {
			return err
		}
		if err := mover.CheckSpace(moves, dest); err != nil {
			return err
		}

		if flagOrgYes {
			break
		}
		approved, feedback := planPrompt(len(moves))
		if approved {
			break
		}
		if feedback == "" {
			fmt.Println("Cancelled.")
			return nil
		}
		fmt.Println("Asking for a revised plan...")
		plan, err = planner.RequestRefinement(ctx, client, instruction, plan, feedback, records)
		if err != nil {
			return err
		}
	}

	res, err := mover.Apply(ctx, idx, moves, movesDir(), func(done, total int) {
		fmt.Printf("\rMoving %d/%d", done, total)
	})
	if err != nil {
		return err
	}
	fmt.Println()

	if flagJSON {
		return printJSON(res)
	}
	fmt.Printf("Moved %d files", res.Applied)
	if res.Renamed > 0 {
		fmt.Printf(" (%d renamed to avoid collisions)", res.Renamed)
	}
	fmt.Println()
	for _, e := range res.Errors {
		fmt.Println("  error:", e)
	}
	if res.LogPath != "" {
		fmt.Println("Undo with: lumina undo", filepath.Base(res.LogPath))
	}
	return nil
}

// organizeCandidates indexes and returns the files directly inside dir.
func organizeCandidates(cmd *cobra.Command, svc *search.Service, dir string) ([]index.FileRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var records []index.FileRecord
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if classify.ShouldIgnore(path) {
			continue
		}
		if _, err := svc.IndexFile(cmd.Context(), path, false); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s not indexed: %v\n", e.Name(), err)
			continue
		}
		rec, err := idx.GetByPath(path)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, nil
}

// planPrompt asks whether to execute the plan. An answer other than
// yes/no is treated as feedback for a revised plan.
func planPrompt(moveCount int) (approved bool, feedback string) {
	fmt.Printf("Move %d files? [y/N, or describe what to change]: ", moveCount)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, ""
	}
	answer := strings.TrimSpace(line)
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, ""
	case "", "n", "no":
		return false, ""
	}
	return false, answer
}

// existingFolders lists the non-hidden subfolders of dest.
func existingFolders(dest string) []string {
	entries, err := os.ReadDir(dest)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// printPlan renders the proposed folders for user review.
func printPlan(plan *planner.Plan, filesByID map[int64]index.FileRecord) {
	summary := plan.Summarize(filesByID)
	sort.Slice(summary.Folders, func(i, j int) bool {
		return summary.Folders[i].Name < summary.Folders[j].Name
	})

	fmt.Printf("Plan: %d files into %d folders\n", summary.TotalFiles, summary.TotalFolders)
	for _, f := range summary.Folders {
		fmt.Printf("  %-20s %d files (%s)\n", f.Name+"/", f.FileCount, search.FormatSize(f.SizeBytes))
	}
}
