package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fentz26/tasklog/internal/config"
	"github.com/fentz26/tasklog/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Log to a file so output does not corrupt the screen.
	logPath := config.LogPath(resolveHome())
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("create home: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	a, err := openApp(cmd.Context(), logFile)
	if err != nil {
		return err
	}
	defer a.Close()

	app := tui.New(tui.Options{
		Store:     a.tasks,
		Locator:   a.locator,
		Scheduler: a.scheduler,
		Logger:    a.logger,
	})
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
