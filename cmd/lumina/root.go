// Root command for the lumina CLI.
package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lumina/internal/index"
	"lumina/internal/logging"
	"lumina/internal/paths"
	"lumina/internal/version"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
	flagVerbose   bool
)

// Shared state set by PersistentPreRunE for all subcommands.
var (
	cfg     *viper.Viper
	idx     *index.Index
	dataDir string
)

// commandsWithoutIndex run before any index exists or do not need one.
var commandsWithoutIndex = map[string]struct{}{
	"version": {},
	"help":    {},
}

var rootCmd = &cobra.Command{
	Use:     "lumina",
	Short:   "Lumina indexes, searches, and organizes your files",
	Version: version.Version,
	Long: `Lumina keeps a local search index over your files: metadata, extracted
text, optional OCR, and optional AI labels and embeddings. On top of the
index it answers natural language searches and plans file organization
that is validated before anything moves.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(flagVerbose)

		if _, skip := commandsWithoutIndex[cmd.Name()]; skip {
			return nil
		}

		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}
		cfg, err = loadConfig(configDir)
		if err != nil {
			return err
		}

		dataDir, err = paths.ResolveDataDir(flagDataDir, cfg.GetString(cfgKeyDataDir))
		if err != nil {
			return err
		}

		idx, err = index.Open(dataDir)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer logging.Sync()
		if idx != nil {
			return idx.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory for the index and move logs")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(organizeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(resyncCmd)
	rootCmd.AddCommand(rebuildFTSCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(updateCmd)
}
