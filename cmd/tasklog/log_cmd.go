package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fentz26/tasklog/internal/models"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the activity log, newest first",
	RunE:  runLog,
}

var (
	logTask  string
	logLimit int
)

func init() {
	logCmd.Flags().StringVar(&logTask, "task", "", "Only entries for this task id (prefix ok, deleted tasks included)")
	logCmd.Flags().IntVar(&logLimit, "limit", 0, "Show at most n entries (0 = all)")
}

func runLog(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	entries := filterEntries(a.activity.Entries(), logTask, logLimit)
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No activity yet")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tTASK\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", humanize.Time(e.Timestamp), e.Action, truncate(e.TaskTitle, 30), oneLine(e.Details))
	}
	w.Flush()
	return nil
}

// filterEntries keeps entries whose task id starts with task, then applies
// limit. Log entries may refer to deleted tasks, so the store is not
// consulted.
func filterEntries(entries []models.LogEntry, task string, limit int) []models.LogEntry {
	if task != "" {
		var kept []models.LogEntry
		for _, e := range entries {
			if strings.HasPrefix(e.TaskID, task) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
