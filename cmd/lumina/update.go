// Update command checks for a newer release.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lumina/internal/update"
	"lumina/internal/version"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check whether a newer version is available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		checker := update.NewChecker(cfg.GetString(cfgKeyUpdateURL), nil)
		info, err := checker.Check(cmd.Context(), version.Version)
		if err != nil {
			return err
		}

		if flagJSON {
			if info == nil {
				return printJSON(map[string]any{"up_to_date": true, "version": version.Version})
			}
			return printJSON(info)
		}

		if info == nil {
			fmt.Printf("%s %s is up to date.\n", version.AppName, version.Version)
			return nil
		}
		fmt.Printf("%s is available (you have %s)\n", info.ReleaseName, info.CurrentVersion)
		if info.ReleaseNotes != "" {
			fmt.Println(info.ReleaseNotes)
		}
		if info.DownloadURL != "" {
			fmt.Println("Download:", info.DownloadURL)
		}
		if info.Required {
			fmt.Println("This update is required.")
		}
		return nil
	},
}
