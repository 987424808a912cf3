package tui

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fentz26/tasklog/internal/audit"
	"github.com/fentz26/tasklog/internal/location"
	"github.com/fentz26/tasklog/internal/models"
	"github.com/fentz26/tasklog/internal/store"
	"github.com/fentz26/tasklog/internal/tasks"
	"github.com/fentz26/tasklog/internal/view"
)

func newTestApp(t *testing.T, loc location.Locator) (*App, *[]string) {
	t.Helper()
	ctx := context.Background()
	kv := store.NewMemoryKV()
	logger := log.New(io.Discard)
	activity := audit.Open(ctx, kv, audit.Options{Logger: logger})
	s := tasks.Open(ctx, kv, activity, tasks.Options{Logger: logger})

	var copied []string
	a := New(Options{
		Store:   s,
		Locator: loc,
		Logger:  logger,
		Copy: func(v string) error {
			copied = append(copied, v)
			return nil
		},
	})
	return a, &copied
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(a *App, msgs ...tea.Msg) {
	for _, m := range msgs {
		a.Update(m)
	}
}

func mustCreate(t *testing.T, a *App, title string) models.Task {
	t.Helper()
	task, err := a.store.Create(context.Background(), tasks.Draft{Title: title})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	a.refresh()
	return task
}

func TestListFilterAndSortKeys(t *testing.T) {
	a, _ := newTestApp(t, nil)
	first := mustCreate(t, a, "First")
	mustCreate(t, a, "Second")
	a.store.ChangeStatus(context.Background(), first.ID, models.TaskStatusCompleted)
	a.refresh()

	if len(a.visible) != 2 {
		t.Fatalf("Expected 2 visible tasks, got %d", len(a.visible))
	}

	press(a, tea.KeyMsg{Type: tea.KeyTab}) // In Progress
	if a.view.Filter != string(models.TaskStatusInProgress) || len(a.visible) != 1 || a.visible[0].Title != "Second" {
		t.Errorf("In Progress filter: got %s with %d tasks", a.view.Filter, len(a.visible))
	}
	press(a, tea.KeyMsg{Type: tea.KeyTab}) // Completed
	if len(a.visible) != 1 || a.visible[0].ID != first.ID {
		t.Errorf("Completed filter: got %v", a.visible)
	}
	press(a, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab}) // Cancelled, All
	if a.view.Filter != view.FilterAll || len(a.visible) != 2 {
		t.Errorf("Expected filter cycle back to All, got %s", a.view.Filter)
	}

	press(a, keys("s"))
	if a.view.SortBy != view.SortByStatus {
		t.Errorf("Expected status sort, got %s", a.view.SortBy)
	}
	press(a, keys("o"))
	if a.view.Direction != view.Ascending {
		t.Errorf("Expected ascending, got %s", a.view.Direction)
	}
	// Completed < In Progress
	if a.visible[0].ID != first.ID {
		t.Errorf("Expected Completed task first, got %s", a.visible[0].Title)
	}
}

func TestDetailStatusAndDelete(t *testing.T) {
	a, _ := newTestApp(t, nil)
	task := mustCreate(t, a, "Water plants")

	press(a, tea.KeyMsg{Type: tea.KeyEnter})
	if a.mode != modeDetail || a.selectedID != task.ID {
		t.Fatalf("Expected detail of %s, got mode %s id %q", task.ID, a.mode, a.selectedID)
	}
	if !strings.Contains(a.View(), "Water plants") {
		t.Error("Detail view should show the title")
	}

	press(a, keys("2"))
	got, _ := a.store.Get(task.ID)
	if got.Status != models.TaskStatusCompleted {
		t.Errorf("Expected Completed, got %s", got.Status)
	}

	press(a, keys("d"))
	if a.selectedID != "" || a.mode != modeList {
		t.Errorf("Delete should clear selection, got mode %s id %q", a.mode, a.selectedID)
	}
	if a.store.Count() != 0 || len(a.visible) != 0 {
		t.Error("Task should be gone")
	}
}

func TestDeleteEventClearsSelection(t *testing.T) {
	a, _ := newTestApp(t, nil)
	task := mustCreate(t, a, "Elsewhere")
	press(a, tea.KeyMsg{Type: tea.KeyEnter})

	// Deletion from outside the TUI, delivered as an event.
	a.store.Delete(context.Background(), task.ID)
	press(a, storeEventMsg{tasks.Event{Kind: tasks.EventDeleted, TaskID: task.ID}})

	if a.selectedID != "" || a.mode != modeList {
		t.Errorf("Expected selection cleared, got mode %s id %q", a.mode, a.selectedID)
	}
}

func TestFormCreate(t *testing.T) {
	a, _ := newTestApp(t, nil)

	press(a, keys("n"))
	if a.mode != modeForm || a.form == nil {
		t.Fatalf("Expected form mode, got %s", a.mode)
	}
	press(a, keys("Buy bread"))
	if got := a.form.inputs[fieldTitle].Value(); got != "Buy bread" {
		t.Fatalf("Expected typed title, got %q", got)
	}
	press(a, tea.KeyMsg{Type: tea.KeyTab}, keys("sourdough"))

	press(a, tea.KeyMsg{Type: tea.KeyCtrlS})
	if a.mode != modeList || a.form != nil {
		t.Fatalf("Expected return to list, got %s", a.mode)
	}
	if a.store.Count() != 1 {
		t.Fatalf("Expected 1 task, got %d", a.store.Count())
	}
	task := a.store.Tasks()[0]
	if task.Title != "Buy bread" || task.Description != "sourdough" {
		t.Errorf("Unexpected task %+v", task)
	}
	if !strings.HasPrefix(a.message, "✓ Created task") {
		t.Errorf("Unexpected message %q", a.message)
	}
}

func TestFormValidationKeepsDraft(t *testing.T) {
	a, _ := newTestApp(t, nil)
	press(a, keys("n"))
	a.form.inputs[fieldTitle].SetValue(strings.Repeat("x", tasks.MaxTitleLen+1))
	a.form.inputs[fieldDescription].SetValue("keep me")

	press(a, tea.KeyMsg{Type: tea.KeyCtrlS})

	if a.mode != modeForm {
		t.Fatalf("Expected to stay in form, got %s", a.mode)
	}
	var verr *tasks.ValidationError
	if !errors.As(a.form.err, &verr) || verr.Field != "title" {
		t.Errorf("Expected title ValidationError, got %v", a.form.err)
	}
	if a.form.inputs[fieldDescription].Value() != "keep me" {
		t.Error("Draft lost on validation error")
	}
	if a.form.focus != fieldTitle {
		t.Errorf("Expected focus on title, got %d", a.form.focus)
	}
	if a.store.Count() != 0 {
		t.Error("Invalid form created a task")
	}
}

func TestFormBadSchedule(t *testing.T) {
	a, _ := newTestApp(t, nil)
	press(a, keys("n"))
	a.form.inputs[fieldTitle].SetValue("Ok")
	a.form.inputs[fieldSchedule].SetValue("someday")

	press(a, tea.KeyMsg{Type: tea.KeyCtrlS})
	if a.form == nil || a.form.err == nil {
		t.Fatal("Expected schedule parse error")
	}
	if a.store.Count() != 0 {
		t.Error("Task created despite bad schedule")
	}
}

func TestFormDeviceLocation(t *testing.T) {
	coords := models.Coordinates{Latitude: 35.6586, Longitude: 139.7454}
	loc := location.NewFixed(true, coords, location.Address{City: "Tokyo", Country: "Japan"})
	a, _ := newTestApp(t, loc)

	press(a, keys("n"))
	a.form.inputs[fieldTitle].SetValue("Tower visit")
	press(a, tea.KeyMsg{Type: tea.KeyCtrlL})

	if got := a.form.inputs[fieldLocation].Value(); got != "Tokyo, Japan" {
		t.Errorf("Expected location filled, got %q", got)
	}

	press(a, tea.KeyMsg{Type: tea.KeyCtrlS})
	task := a.store.Tasks()[0]
	if task.Coordinates == nil || *task.Coordinates != coords {
		t.Errorf("Expected device coordinates on task, got %v", task.Coordinates)
	}
}

func TestFormManualEditDropsCoordinates(t *testing.T) {
	loc := location.NewFixed(true, models.Coordinates{Latitude: 1, Longitude: 1}, location.Address{City: "Somewhere"})
	a, _ := newTestApp(t, loc)

	press(a, keys("n"))
	a.form.inputs[fieldTitle].SetValue("Edited")
	press(a, tea.KeyMsg{Type: tea.KeyCtrlL})
	a.form.inputs[fieldLocation].SetValue("My own words")
	press(a, tea.KeyMsg{Type: tea.KeyCtrlS})

	task := a.store.Tasks()[0]
	if task.Coordinates != nil {
		t.Error("Coordinates kept after manual location edit")
	}
	if task.Location == nil || *task.Location != "My own words" {
		t.Errorf("Unexpected location %v", task.Location)
	}
}

func TestFormLocationUnavailable(t *testing.T) {
	a, _ := newTestApp(t, nil)
	press(a, keys("n"))
	press(a, tea.KeyMsg{Type: tea.KeyCtrlL})

	if !a.isError || !strings.Contains(a.message, "location") {
		t.Errorf("Expected location notice, got %q", a.message)
	}
	if a.form.inputs[fieldLocation].Value() != "" {
		t.Error("Location filled despite failure")
	}
}

func TestAttachFile(t *testing.T) {
	a, _ := newTestApp(t, nil)
	file := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(file, []byte("hi"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	press(a, keys("n"))
	a.startDir = filepath.Dir(file)
	press(a, tea.KeyMsg{Type: tea.KeyCtrlF})
	if a.mode != modeFiles {
		t.Fatalf("Expected file picker, got %s", a.mode)
	}

	a.attachFile(file)
	if a.mode != modeForm {
		t.Errorf("Expected back in form, got %s", a.mode)
	}
	if len(a.form.draft.Files) != 1 || a.form.draft.Files[0] != file {
		t.Errorf("Expected %s attached, got %v", file, a.form.draft.Files)
	}

	a.form.inputs[fieldTitle].SetValue("With file")
	press(a, tea.KeyMsg{Type: tea.KeyCtrlS})
	if task := a.store.Tasks()[0]; len(task.Files) != 1 {
		t.Errorf("Expected file on task, got %v", task.Files)
	}
}

func TestEscCancelsForm(t *testing.T) {
	a, _ := newTestApp(t, nil)
	press(a, keys("n"), keys("draft"), tea.KeyMsg{Type: tea.KeyEsc})
	if a.mode != modeList || a.form != nil {
		t.Errorf("Expected list mode, got %s", a.mode)
	}
	if a.store.Count() != 0 {
		t.Error("Cancelled form created a task")
	}
}

func TestActivityLogView(t *testing.T) {
	a, _ := newTestApp(t, nil)
	task := mustCreate(t, a, "Logged")
	a.store.ChangeStatus(context.Background(), task.ID, models.TaskStatusCancelled)

	press(a, keys("l"))
	if a.mode != modeLog {
		t.Fatalf("Expected log mode, got %s", a.mode)
	}
	out := a.View()
	for _, want := range []string{"Activity Log", "Logged", "Status changed from In Progress to Cancelled", `Task "Logged" created`} {
		if !strings.Contains(out, want) {
			t.Errorf("Log view missing %q", want)
		}
	}

	press(a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.mode != modeList {
		t.Errorf("Expected list mode, got %s", a.mode)
	}
}

func TestCopyID(t *testing.T) {
	a, copied := newTestApp(t, nil)
	task := mustCreate(t, a, "Copy me")

	press(a, keys("y"))
	if len(*copied) != 1 || (*copied)[0] != task.ID {
		t.Errorf("Expected %s copied, got %v", task.ID, *copied)
	}

	a.copy = func(string) error { return errors.New("no clipboard") }
	press(a, keys("y"))
	if !a.isError {
		t.Error("Expected clipboard error message")
	}
}

func TestNoticeAndReminderMessages(t *testing.T) {
	a, _ := newTestApp(t, nil)

	press(a, storeEventMsg{tasks.Event{Kind: tasks.EventNotice, Err: &tasks.CollaboratorError{Collaborator: "notifications", Err: errors.New("denied")}}})
	if !a.isError || !strings.Contains(a.message, "notifications: denied") {
		t.Errorf("Unexpected notice message %q", a.message)
	}

	press(a, reminderMsg{models.Reminder{Title: "Stand up"}})
	if a.isError || !strings.Contains(a.message, "Stand up") {
		t.Errorf("Unexpected reminder message %q", a.message)
	}
}

func TestNavigationBounds(t *testing.T) {
	a, _ := newTestApp(t, nil)
	mustCreate(t, a, "A")
	mustCreate(t, a, "B")

	press(a, keys("k"))
	if a.selectedIdx != 0 {
		t.Errorf("Cursor moved above the list: %d", a.selectedIdx)
	}
	press(a, keys("j"), keys("j"), keys("j"))
	if a.selectedIdx != 1 {
		t.Errorf("Cursor moved past the list: %d", a.selectedIdx)
	}

	_, cmd := a.Update(keys("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestReloadPicksUpOtherWriter(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	logger := log.New(io.Discard)
	open := func() *tasks.Store {
		return tasks.Open(ctx, kv, audit.Open(ctx, kv, audit.Options{Logger: logger}), tasks.Options{Logger: logger})
	}
	mine, other := open(), open()
	a := New(Options{Store: mine, Logger: logger})

	press(a, keys("r"))
	if a.message != "Up to date" {
		t.Errorf("Expected no change, got %q", a.message)
	}

	if _, err := other.Create(ctx, tasks.Draft{Title: "From the CLI"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	press(a, keys("r"))
	if len(a.visible) != 1 || a.visible[0].Title != "From the CLI" {
		t.Fatalf("Expected reloaded task, got %+v", a.visible)
	}
	if !strings.Contains(a.message, "Reloaded") {
		t.Errorf("Unexpected message %q", a.message)
	}
	if a.store.Activity().Len() != 1 {
		t.Errorf("Expected reloaded log entry, got %d", a.store.Activity().Len())
	}
}
