package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/tasklog/internal/models"
	"github.com/fentz26/tasklog/internal/view"
)

// execute runs the root command against a fresh home directory.
func execute(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--home", home}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func resetTaskFlags() {
	taskTitle, taskDesc, taskLocation = "", "", ""
	taskHere = false
	taskFiles = nil
	taskAt, taskIn = "", ""
	taskStatus, taskSort, taskOrder = "all", "date", "desc"
	logTask, logLimit = "", 0
	configForce = false
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"ünïcödé tïtlé", 8, "ünïcö..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}

	if got := truncateID("0123456789abcdef"); got != "01234567" {
		t.Errorf("truncateID = %q", got)
	}
	if got := truncateID("abc"); got != "abc" {
		t.Errorf("truncateID(short) = %q", got)
	}
	if got := oneLine("first line\nsecond\tline"); got != "first line second line" {
		t.Errorf("oneLine = %q", got)
	}
}

func TestParseViewOptions(t *testing.T) {
	o, err := parseViewOptions("done", "status", "asc")
	if err != nil {
		t.Fatalf("parseViewOptions failed: %v", err)
	}
	if o.Filter != string(models.TaskStatusCompleted) || o.SortBy != view.SortByStatus || o.Direction != view.Ascending {
		t.Errorf("Unexpected options: %+v", o)
	}

	if _, err := parseViewOptions("later", "date", "desc"); err == nil {
		t.Error("Expected error for unknown status")
	}
	if _, err := parseViewOptions("all", "priority", "desc"); err == nil {
		t.Error("Expected error for unknown sort key")
	}
	if _, err := parseViewOptions("all", "date", "up"); err == nil {
		t.Error("Expected error for unknown order")
	}
}

func TestFilterEntries(t *testing.T) {
	now := time.Now()
	entries := []models.LogEntry{
		{ID: "3", TaskID: "bbbb-2", Action: models.LogActionDeleted, Timestamp: now},
		{ID: "2", TaskID: "aaaa-1", Action: models.LogActionStatusChanged, Timestamp: now},
		{ID: "1", TaskID: "aaaa-1", Action: models.LogActionCreated, Timestamp: now},
	}

	got := filterEntries(entries, "aaaa", 0)
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "1" {
		t.Errorf("Prefix filter: got %+v", got)
	}

	got = filterEntries(entries, "", 1)
	if len(got) != 1 || got[0].ID != "3" {
		t.Errorf("Limit: got %+v", got)
	}

	if got := filterEntries(entries, "zzzz", 0); len(got) != 0 {
		t.Errorf("Expected no entries, got %d", len(got))
	}
}

func TestTaskLifecycle(t *testing.T) {
	t.Setenv("TASKLOG_BACKEND", "")
	home := t.TempDir()
	resetTaskFlags()
	defer resetTaskFlags()

	out, err := execute(t, home, "task", "add", "--title", "Buy milk", "--desc", "2 litres")
	if err != nil {
		t.Fatalf("task add failed: %v\n%s", err, out)
	}
	const prefix = "Created task: "
	idx := strings.Index(out, prefix)
	if idx < 0 {
		t.Fatalf("Missing created line in %q", out)
	}
	id := strings.TrimSpace(out[idx+len(prefix):])

	out, err = execute(t, home, "task", "list")
	if err != nil {
		t.Fatalf("task list failed: %v", err)
	}
	if !strings.Contains(out, "Buy milk") || !strings.Contains(out, "In Progress") {
		t.Errorf("List missing task:\n%s", out)
	}

	out, err = execute(t, home, "task", "status", id[:8], "done")
	if err != nil {
		t.Fatalf("task status failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Completed") {
		t.Errorf("Unexpected status output: %q", out)
	}

	out, err = execute(t, home, "task", "delete", id)
	if err != nil {
		t.Fatalf("task delete failed: %v\n%s", err, out)
	}

	out, err = execute(t, home, "log", "--task", id[:8])
	if err != nil {
		t.Fatalf("log failed: %v", err)
	}
	for _, want := range []string{"deleted", "status_changed", "created"} {
		if !strings.Contains(out, want) {
			t.Errorf("Log missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "deleted") > strings.Index(out, "created") {
		t.Errorf("Log not newest first:\n%s", out)
	}

	out, err = execute(t, home, "task", "list")
	if err != nil {
		t.Fatalf("task list failed: %v", err)
	}
	if !strings.Contains(out, "No tasks found") {
		t.Errorf("Expected empty list after delete:\n%s", out)
	}
}

func TestTaskAddValidation(t *testing.T) {
	home := t.TempDir()
	resetTaskFlags()
	defer resetTaskFlags()

	if _, err := execute(t, home, "task", "add", "--title", strings.Repeat("x", 51)); err == nil {
		t.Error("Expected error for overlong title")
	}

	out, err := execute(t, home, "remind", "list")
	if err != nil {
		t.Fatalf("remind list failed: %v", err)
	}
	if !strings.Contains(out, "No pending reminders") {
		t.Errorf("Unexpected reminders:\n%s", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	t.Setenv("TASKLOG_BACKEND", "")
	home := t.TempDir()
	resetTaskFlags()
	defer resetTaskFlags()

	out, err := execute(t, home, "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(home, "config.yaml")); err != nil {
		t.Fatalf("Expected config file: %v", err)
	}

	if _, err := execute(t, home, "config", "init"); err == nil {
		t.Error("Expected error when config already exists")
	}
	if _, err := execute(t, home, "config", "init", "--force"); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}

	out, err = execute(t, home, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"backend: sqlite", "poll_interval", "level: info"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}
