// Package tui provides the interactive terminal UI for tasklog.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/fentz26/tasklog/internal/location"
	"github.com/fentz26/tasklog/internal/models"
	"github.com/fentz26/tasklog/internal/scheduler"
	"github.com/fentz26/tasklog/internal/tasks"
	"github.com/fentz26/tasklog/internal/view"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

type mode string

const (
	modeList   mode = "list"
	modeDetail mode = "detail"
	modeForm   mode = "form"
	modeFiles  mode = "files"
	modeLog    mode = "log"
)

// Options configures the TUI.
type Options struct {
	Store   *tasks.Store
	Locator location.Locator
	// Scheduler is started while the TUI runs and its reminders are shown
	// in the message bar. Optional.
	Scheduler *scheduler.Scheduler
	Logger    *log.Logger
	// StartDir is where the file picker opens. Defaults to the working
	// directory.
	StartDir string
	// Copy writes to the clipboard. Defaults to clipboard.WriteAll.
	Copy func(string) error
}

// App is the main TUI application model.
type App struct {
	store     *tasks.Store
	locator   location.Locator
	scheduler *scheduler.Scheduler
	logger    *log.Logger
	copy      func(string) error
	startDir  string

	view        view.Options
	visible     []models.Task
	selectedIdx int
	// selectedID is the task shown in detail mode. Deleting it clears it.
	selectedID string

	mode     mode
	form     *taskForm
	picker   filepicker.Model
	viewport viewport.Model
	width    int
	height   int
	message  string
	isError  bool
}

// New creates a new TUI application.
func New(opts Options) *App {
	a := &App{
		store:     opts.Store,
		locator:   opts.Locator,
		scheduler: opts.Scheduler,
		logger:    opts.Logger,
		copy:      opts.Copy,
		startDir:  opts.StartDir,
		view:      view.DefaultOptions(),
		mode:      modeList,
		viewport:  viewport.New(80, 20),
		width:     80,
		height:    24,
	}
	if a.logger == nil {
		a.logger = log.Default()
	}
	if a.copy == nil {
		a.copy = clipboard.WriteAll
	}
	if a.locator == nil {
		a.locator = location.NewFixed(false, models.Coordinates{}, location.Address{})
	}
	a.refresh()
	return a
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())

	// Send from a goroutine: events are published while Update is running.
	unsubscribe := a.store.Subscribe(func(e tasks.Event) {
		go p.Send(storeEventMsg{e})
	})
	defer unsubscribe()

	if a.scheduler != nil {
		a.scheduler.SetDeliver(func(r models.Reminder) {
			p.Send(reminderMsg{r})
		})
		a.scheduler.Start()
		defer a.scheduler.Stop()
	}

	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.viewport.Width = msg.Width
		a.viewport.Height = max(5, msg.Height-6)
		a.picker.Height = max(5, msg.Height-8)
		if a.form != nil {
			a.form.setWidth(msg.Width - 20)
		}
		return a, nil

	case storeEventMsg:
		a.handleEvent(msg.event)
		return a, nil

	case reminderMsg:
		a.setMessage(fmt.Sprintf("⏰ Reminder: %s", msg.reminder.Title), false)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	switch a.mode {
	case modeDetail:
		return a.updateDetail(msg)
	case modeForm:
		return a.updateForm(msg)
	case modeFiles:
		return a.updateFiles(msg)
	case modeLog:
		return a.updateLog(msg)
	default:
		return a.updateList(msg)
	}
}

func (a *App) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	switch key.String() {
	case "q":
		return a, tea.Quit

	case "up", "k":
		if a.selectedIdx > 0 {
			a.selectedIdx--
		}

	case "down", "j":
		if a.selectedIdx < len(a.visible)-1 {
			a.selectedIdx++
		}

	case "tab":
		a.view = a.view.NextFilter()
		a.refresh()

	case "s":
		a.view = a.view.ToggleSortKey()
		a.refresh()

	case "o":
		a.view = a.view.ToggleDirection()
		a.refresh()

	case "enter":
		if t, ok := a.current(); ok {
			a.selectedID = t.ID
			a.mode = modeDetail
			a.message = ""
		}

	case "n":
		a.form = newTaskForm(a.width - 20)
		a.mode = modeForm
		a.message = ""
		return a, a.form.focusCmd()

	case "r":
		a.reload()

	case "l":
		a.mode = modeLog
		a.store.Activity().Reload(context.Background())
		a.viewport.SetContent(a.renderActivityLog(a.store.Activity().Entries()))
		a.viewport.GotoTop()

	case "y":
		if t, ok := a.current(); ok {
			a.copyID(t.ID)
		}
	}
	return a, nil
}

func (a *App) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	ctx := context.Background()
	switch key.String() {
	case "esc", "backspace", "q":
		a.mode = modeList
		a.selectedID = ""

	case "1", "2", "3":
		status := models.Statuses[key.String()[0]-'1']
		if err := a.store.ChangeStatus(ctx, a.selectedID, status); err != nil {
			a.setMessage("Error: "+err.Error(), true)
			return a, nil
		}
		a.refresh()
		a.setMessage(fmt.Sprintf("✓ Marked %s", status), false)

	case "d":
		id := a.selectedID
		if err := a.store.Delete(ctx, id); err != nil {
			a.setMessage("Error: "+err.Error(), true)
			return a, nil
		}
		a.clearSelection(id)
		a.setMessage("✓ Task deleted", false)

	case "y":
		a.copyID(a.selectedID)
	}
	return a, nil
}

func (a *App) updateLog(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "q", "l":
			a.mode = modeList
			return a, nil
		}
	}
	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

// handleEvent reacts to a committed store mutation.
func (a *App) handleEvent(e tasks.Event) {
	switch e.Kind {
	case tasks.EventDeleted:
		a.clearSelection(e.TaskID)
	case tasks.EventNotice:
		a.setMessage("⚠ "+e.Err.Error(), true)
	}
	a.refresh()
	if a.mode == modeLog {
		a.viewport.SetContent(a.renderActivityLog(a.store.Activity().Entries()))
	}
}

// clearSelection drops the detail reference to a deleted task.
func (a *App) clearSelection(id string) {
	if a.selectedID == id {
		a.selectedID = ""
		if a.mode == modeDetail {
			a.mode = modeList
		}
	}
	a.refresh()
}

// refresh recomputes the derived view and keeps the cursor in range.
func (a *App) refresh() {
	a.visible = a.store.View(a.view)
	if a.selectedIdx >= len(a.visible) {
		a.selectedIdx = max(0, len(a.visible)-1)
	}
}

// reload picks up tasks and log entries written by another tasklog process.
func (a *App) reload() {
	ctx := context.Background()
	tasksChanged := a.store.Reload(ctx)
	logChanged := a.store.Activity().Reload(ctx)
	a.refresh()
	if tasksChanged || logChanged {
		a.setMessage("✓ Reloaded", false)
		return
	}
	a.setMessage("Up to date", false)
}

func (a *App) current() (models.Task, bool) {
	if a.selectedIdx < 0 || a.selectedIdx >= len(a.visible) {
		return models.Task{}, false
	}
	return a.visible[a.selectedIdx], true
}

func (a *App) copyID(id string) {
	if id == "" {
		return
	}
	if err := a.copy(id); err != nil {
		a.logger.Warn("clipboard write failed", "err", err)
		a.setMessage("Error: clipboard unavailable", true)
		return
	}
	a.setMessage(fmt.Sprintf("✓ Copied %s", shortID(id)), false)
}

func (a *App) setMessage(msg string, isError bool) {
	a.message = msg
	a.isError = isError
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	header := titleStyle.Render("📝 TASKLOG")
	header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(fmt.Sprintf("[%d tasks]", a.store.Count()))
	header += "  " + mutedStyle.Render(fmt.Sprintf("[%d log entries]", a.store.Activity().Len()))
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(0, a.width)) + "\n")

	contentHeight := a.height - 6
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch a.mode {
	case modeList:
		label := fmt.Sprintf(" Filter: [%s]  Sort: [%s %s]", a.view.Filter, a.view.SortBy, directionArrow(a.view.Direction))
		b.WriteString(mutedStyle.Render(label) + "\n")
		b.WriteString(a.renderTaskList(contentHeight - 1))
	case modeDetail:
		b.WriteString(a.renderTaskDetail())
	case modeForm:
		b.WriteString(a.form.view())
	case modeFiles:
		b.WriteString(a.renderFilePicker())
	case modeLog:
		b.WriteString(a.viewport.View())
	}

	// Message bar
	b.WriteString("\n")
	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if a.isError {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString(msgStyle.Render(a.message))
	}
	b.WriteString("\n")

	b.WriteString(statusBarStyle.Width(a.width).Render(a.statusLine()))
	return b.String()
}

func (a *App) statusLine() string {
	switch a.mode {
	case modeDetail:
		return " 1:in progress | 2:completed | 3:cancelled | d:delete | y:copy id | Esc:back"
	case modeForm:
		return " Tab:next field | Ctrl+L:use location | Ctrl+F:attach | Ctrl+S/Enter:save | Esc:cancel"
	case modeFiles:
		return " ↑↓:nav | Enter:select | Esc:back"
	case modeLog:
		return fmt.Sprintf(" Activity: %d | ↑↓:scroll | Esc:back", a.store.Activity().Len())
	default:
		return fmt.Sprintf(" Tasks: %d | ↑↓:nav | Tab:filter | s:sort | o:order | n:new | l:log | r:reload | y:copy | q:quit", len(a.visible))
	}
}

func directionArrow(d view.Direction) string {
	if d == view.Ascending {
		return "↑"
	}
	return "↓"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type storeEventMsg struct {
	event tasks.Event
}

type reminderMsg struct {
	reminder models.Reminder
}

// clock is swapped in tests.
var clock = time.Now
