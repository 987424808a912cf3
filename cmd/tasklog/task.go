package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fentz26/tasklog/internal/attach"
	"github.com/fentz26/tasklog/internal/models"
	"github.com/fentz26/tasklog/internal/tasks"
	"github.com/fentz26/tasklog/internal/view"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new task",
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details and history",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskStatusCmd = &cobra.Command{
	Use:   "status [task-id] [status]",
	Short: "Change a task's status (in-progress, completed, cancelled)",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskStatus,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete a task and cancel its reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var (
	taskTitle    string
	taskDesc     string
	taskLocation string
	taskHere     bool
	taskFiles    []string
	taskAt       string
	taskIn       string

	taskStatus string
	taskSort   string
	taskOrder  string
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskStatusCmd, taskDeleteCmd)

	taskAddCmd.Flags().StringVar(&taskTitle, "title", "", "Task title (required)")
	taskAddCmd.Flags().StringVar(&taskDesc, "desc", "", "Task description")
	taskAddCmd.Flags().StringVar(&taskLocation, "location", "", "Where the task happens")
	taskAddCmd.Flags().BoolVar(&taskHere, "here", false, "Use the configured device location")
	taskAddCmd.Flags().StringArrayVar(&taskFiles, "file", nil, "Attach a file (repeatable)")
	taskAddCmd.Flags().StringVar(&taskAt, "at", "", "Remind at \"YYYY-MM-DD HH:MM\" local time")
	taskAddCmd.Flags().StringVar(&taskIn, "in", "", "Remind after a duration, e.g. 2h")
	taskAddCmd.MarkFlagRequired("title")
	taskAddCmd.MarkFlagsMutuallyExclusive("at", "in")
	taskAddCmd.MarkFlagsMutuallyExclusive("location", "here")

	taskListCmd.Flags().StringVar(&taskStatus, "status", "all", "Filter by status (all, in-progress, completed, cancelled)")
	taskListCmd.Flags().StringVar(&taskSort, "sort", "date", "Sort by date or status")
	taskListCmd.Flags().StringVar(&taskOrder, "order", "desc", "Sort order (asc, desc)")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	unsubscribe := a.tasks.Subscribe(func(e tasks.Event) {
		if e.Kind == tasks.EventNotice {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", e.Err)
		}
	})
	defer unsubscribe()

	draft := tasks.Draft{
		Title:       taskTitle,
		Description: taskDesc,
		Location:    taskLocation,
	}

	if taskHere {
		if err := draft.UseDeviceLocation(ctx, a.locator); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
	}

	picker := attach.NewPathPicker(taskFiles...)
	for picker.Remaining() > 0 {
		if _, err := draft.Attach(ctx, picker); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
	}

	when := taskAt
	if taskIn != "" {
		when = "in " + taskIn
	}
	draft.ScheduledFor, err = tasks.ParseSchedule(when, time.Now(), time.Local)
	if err != nil {
		return err
	}

	task, err := a.tasks.Create(ctx, draft)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created task: %s\n", task.ID)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	opts, err := parseViewOptions(taskStatus, taskSort, taskOrder)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	list := a.tasks.View(opts)
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tCREATED\tLOCATION")
	for _, t := range list {
		loc := ""
		if t.Location != nil {
			loc = truncate(*t.Location, 30)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", truncateID(t.ID), truncate(t.Title, 40), t.Status, humanize.Time(t.CreatedAt), loc)
	}
	w.Flush()
	return nil
}

func parseViewOptions(status, sortKey, order string) (view.Options, error) {
	filter, err := view.ParseFilter(status)
	if err != nil {
		return view.Options{}, err
	}
	key, err := view.ParseSortKey(sortKey)
	if err != nil {
		return view.Options{}, err
	}
	dir, err := view.ParseDirection(order)
	if err != nil {
		return view.Options{}, err
	}
	return view.Options{Filter: filter, SortBy: key, Direction: dir}, nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.tasks.Resolve(args[0])
	if err != nil {
		return err
	}
	t, _ := a.tasks.Get(id)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %s\n", t.ID)
	fmt.Fprintf(out, "Title:       %s\n", t.Title)
	fmt.Fprintf(out, "Description: %s\n", t.Description)
	fmt.Fprintf(out, "Status:      %s\n", t.Status)
	if t.Location != nil {
		fmt.Fprintf(out, "Location:    %s\n", *t.Location)
	}
	if t.Coordinates != nil {
		fmt.Fprintf(out, "Coordinates: %.5f, %.5f\n", t.Coordinates.Latitude, t.Coordinates.Longitude)
	}
	fmt.Fprintf(out, "Created:     %s\n", formatTime(t.CreatedAt))
	if t.LastUpdated != nil {
		fmt.Fprintf(out, "Updated:     %s\n", formatTime(*t.LastUpdated))
	}
	if t.ScheduledFor != nil {
		reminder := formatTime(*t.ScheduledFor)
		if t.NotificationID == nil {
			reminder += " (not scheduled)"
		}
		fmt.Fprintf(out, "Reminder:    %s\n", reminder)
	}
	for i, f := range t.Files {
		label := "Files:"
		if i > 0 {
			label = ""
		}
		fmt.Fprintf(out, "%-12s %s\n", label, f)
	}

	entries := a.activity.ForTask(t.ID)
	if len(entries) > 0 {
		fmt.Fprintln(out, "\nHistory:")
		for _, e := range entries {
			fmt.Fprintf(out, "  %s  %s\n", humanize.Time(e.Timestamp), e.Details)
		}
	}
	return nil
}

func runTaskStatus(cmd *cobra.Command, args []string) error {
	status, err := models.ParseTaskStatus(args[1])
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.tasks.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := a.tasks.ChangeStatus(cmd.Context(), id, status); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Task %s marked %s\n", truncateID(id), status)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.tasks.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := a.tasks.Delete(cmd.Context(), id); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", truncateID(id))
	return nil
}

func formatTime(t time.Time) string {
	return fmt.Sprintf("%s (%s)", t.Local().Format("Jan 2, 2006 3:04 PM"), humanize.Time(t))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// oneLine collapses newlines so multi-line text fits a table cell.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
