package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tasklog",
	Short: "tasklog - personal to-do list with an activity log",
	Long: `tasklog keeps a local to-do list. Tasks carry a status, an optional location,
attachments and a reminder, and every change is recorded in an activity log.`,
	SilenceUsage: true,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	homeDir    string
	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "Data directory (default $TASKLOG_HOME or ~/.tasklog)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <home>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
