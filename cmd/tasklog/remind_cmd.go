package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fentz26/tasklog/internal/models"
	"github.com/spf13/cobra"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Inspect and deliver task reminders",
}

var remindListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending reminders",
	RunE:  runRemindList,
}

var remindWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Deliver reminders as they come due until interrupted",
	RunE:  runRemindWatch,
}

func init() {
	remindCmd.AddCommand(remindListCmd, remindWatchCmd)
}

func runRemindList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	pending, err := a.scheduler.Pending(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(pending) == 0 {
		fmt.Fprintln(out, "No pending reminders")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tFIRES")
	for _, r := range pending {
		fmt.Fprintf(w, "%s\t%s\t%s\n", truncateID(r.ID), truncate(r.Title, 40), formatTime(r.FireAt))
	}
	w.Flush()
	return nil
}

func runRemindWatch(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	a.scheduler.SetDeliver(func(r models.Reminder) {
		fmt.Fprintf(out, "⏰ %s (due %s)\n", r.Title, humanize.Time(r.FireAt))
	})

	a.scheduler.Start()
	defer a.scheduler.Stop()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	fmt.Fprintln(out, "Watching for reminders. Press Ctrl+C to stop.")
	select {
	case sig := <-sigCh:
		a.logger.Info("Received signal, shutting down", "signal", sig)
	case <-cmd.Context().Done():
	}
	return nil
}
