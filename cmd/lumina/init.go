// Init command creates the config and data directories.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and the file index",
	Long: `Init creates the configuration directory with a default config.yaml and
an empty file index in the data directory. Both already happen on first
use of any command; init only makes the locations explicit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Config and index were created by PersistentPreRunE.
		n, err := idx.Count()
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(map[string]any{
				"config_file": cfg.ConfigFileUsed(),
				"data_dir":    dataDir,
				"files":       n,
			})
		}
		fmt.Println("Config: ", cfg.ConfigFileUsed())
		fmt.Println("Data:   ", dataDir)
		fmt.Printf("Index ready (%d files)\n", n)
		return nil
	},
}
