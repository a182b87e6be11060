// Package cli implements the taskdeck command tree and the interactive
// board. It is the presentation layer: it renders derived views and
// forwards user intents into the view-model and mutation controller.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "taskdeck",
	Short: "taskdeck - terminal client for your task manager",
	Long: `taskdeck is a terminal client for a remote task-management service.

It authenticates against the service, keeps the task collection in sync
after every change, and lets you search, filter, create, edit, and delete
tasks either through one-shot commands or the interactive board.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskdeck %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
