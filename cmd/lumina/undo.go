// Undo command reverses a past move operation.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lumina/internal/mover"
)

var flagUndoYes bool

var undoCmd = &cobra.Command{
	Use:   "undo [log-file]",
	Short: "Undo a move operation",
	Long: `Undo restores the files recorded in a move log to their original
locations. Without an argument the most recent operation is undone; see
"lumina history moves" for older logs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUndo,
}

func init() {
	undoCmd.Flags().BoolVarP(&flagUndoYes, "yes", "y", false, "skip the confirmation prompt")
}

func runUndo(cmd *cobra.Command, args []string) error {
	logPath := ""
	if len(args) == 1 {
		logPath = args[0]
	} else {
		history, err := mover.History(movesDir())
		if err != nil {
			return err
		}
		if len(history) == 0 {
			return fmt.Errorf("no move operations to undo")
		}
		logPath = history[0].LogFile
	}

	log, err := mover.ReadLog(logPath)
	if err != nil {
		return err
	}
	if !flagUndoYes && !flagJSON {
		if !confirm(fmt.Sprintf("Restore %d files moved at %s?", len(log.Moves), log.Timestamp)) {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	res, err := mover.Undo(cmd.Context(), idx, logPath, nil)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(res)
	}
	fmt.Printf("Restored %d of %d files\n", res.Restored, len(log.Moves))
	for _, e := range res.Errors {
		fmt.Println("  error:", e)
	}
	return nil
}
