// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "podzol",
	Short: "Podzol is a single-user personal publishing site",
	Long: `Podzol is a single-user personal publishing site: the owner posts
statuses, longform texts, images and links; visitors read, comment and
subscribe to email notifications.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
