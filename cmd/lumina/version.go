// Version command for the lumina CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lumina/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lumina version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s (built %s)\n", version.AppName, version.Version, version.BuildDate)
	},
}
