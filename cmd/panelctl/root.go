package main

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "panelctl",
	Short: "panelctl - project control panel",
	Long: `panelctl runs project maintenance actions (cleanup, archive, git status)
on top of a background task manager with an executor pool, so long-running
commands never block the caller and shut down cleanly.`,
	Version: Version,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(statusCmd)
}
