// Watch command runs the auto-organize watcher until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lumina/internal/watcher"
)

var flagWatchNoCatchUp bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Auto-organize configured folders as files arrive",
	Long: `Watch monitors the folders configured under watch.folders in
config.yaml. New files are left alone until they settle, then indexed
and organized according to each folder's instruction. On start, files
that appeared since the last run are organized too. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&flagWatchNoCatchUp, "no-catch-up", false, "skip files that arrived while not watching")
}

func runWatch(cmd *cobra.Command, args []string) error {
	folders, settle, err := watchConfig(cfg)
	if err != nil {
		return err
	}
	if len(folders) == 0 {
		return fmt.Errorf("no folders configured; add watch.folders to %s", cfg.ConfigFileUsed())
	}

	client, err := newPlannerClient()
	if err != nil {
		return fmt.Errorf("watch needs an AI provider: %w", err)
	}

	opts := watcher.Options{Settle: settle}
	if !flagWatchNoCatchUp {
		opts.CatchUpSince = watcher.LoadLastActive(dataDir)
	}

	w := watcher.New(newService(), client, movesDir(), folders, opts)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, f := range folders {
		fmt.Println("Watching", f.Path)
	}

	err = w.Run(ctx)
	if saveErr := watcher.SaveLastActive(dataDir, time.Now()); saveErr != nil {
		fmt.Println("Warning: last-active time not saved:", saveErr)
	}
	if errors.Is(err, context.Canceled) {
		fmt.Println("Stopped.")
		return nil
	}
	return err
}
