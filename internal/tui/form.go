package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/tasklog/internal/tasks"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldLocation
	fieldSchedule
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Description", "Location", "Remind at"}

// taskForm is the new-task form. The draft survives validation errors.
type taskForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	draft  tasks.Draft
	err    error
}

func newTaskForm(width int) *taskForm {
	f := &taskForm{}
	limits := [fieldCount]int{tasks.MaxTitleLen, tasks.MaxDescriptionLen, tasks.MaxLocationLen, 32}
	placeholders := [fieldCount]string{
		"What needs doing?",
		"Details (optional)",
		"Where (optional, Ctrl+L for current location)",
		tasks.ScheduleLayout + " or 2h (optional)",
	}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		// Leave room past the limit so overflow is reported, not silently cut.
		ti.CharLimit = limits[i] + 20
		f.inputs[i] = ti
	}
	f.setWidth(width)
	f.inputs[fieldTitle].Focus()
	return f
}

func (f *taskForm) setWidth(w int) {
	if w < 20 {
		w = 20
	}
	for i := range f.inputs {
		f.inputs[i].Width = w
	}
}

func (f *taskForm) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (f *taskForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = (i + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

// sync copies the text inputs into the draft.
func (f *taskForm) sync(now time.Time) error {
	loc := strings.TrimSpace(f.inputs[fieldLocation].Value())
	if f.draft.UseCurrentLocation && loc != f.draft.Location {
		f.draft.ClearDeviceLocation()
	}
	f.draft.Title = f.inputs[fieldTitle].Value()
	f.draft.Description = f.inputs[fieldDescription].Value()
	f.draft.Location = loc

	at, err := tasks.ParseSchedule(f.inputs[fieldSchedule].Value(), now, time.Local)
	if err != nil {
		return err
	}
	f.draft.ScheduledFor = at
	return nil
}

func (f *taskForm) view() string {
	var b strings.Builder
	b.WriteString("\n  ✏️  New Task\n\n")
	for i, in := range f.inputs {
		label := labelStyle.Render(fmt.Sprintf("  %-12s", fieldLabels[i]+":"))
		box := in.View()
		if i == f.focus {
			box = inputBoxStyle.Render(box)
		} else {
			box = lipgloss.NewStyle().Padding(0, 2).Render(box)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, label, box) + "\n")
	}

	if f.draft.Coordinates != nil {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  📍 using device location (%.5f, %.5f)", f.draft.Coordinates.Latitude, f.draft.Coordinates.Longitude)) + "\n")
	}
	if len(f.draft.Files) > 0 {
		b.WriteString(sectionStyle.Render("  📎 Files") + "\n")
		for _, file := range f.draft.Files {
			b.WriteString(fmt.Sprintf("    • %s\n", file))
		}
	}
	if f.err != nil {
		b.WriteString("\n  " + lipgloss.NewStyle().Foreground(errorColor).Render("✗ "+f.err.Error()) + "\n")
	}
	b.WriteString("\n  " + helpStyle.Render("Ctrl+L: use current location  Ctrl+F: attach file") + "\n")
	return b.String()
}

func (a *App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	f := a.form
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			a.form = nil
			a.mode = modeList
			return a, nil

		case "tab", "down":
			f.setFocus(f.focus + 1)
			return a, nil

		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return a, nil

		case "ctrl+l":
			a.useDeviceLocation()
			return a, nil

		case "ctrl+f":
			return a, a.openFilePicker()

		case "ctrl+s":
			return a, a.submitForm()

		case "enter":
			if f.focus == fieldCount-1 {
				return a, a.submitForm()
			}
			f.setFocus(f.focus + 1)
			return a, nil
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return a, cmd
}

func (a *App) useDeviceLocation() {
	f := a.form
	if err := f.draft.UseDeviceLocation(context.Background(), a.locator); err != nil {
		a.setMessage("⚠ "+err.Error(), true)
		return
	}
	f.inputs[fieldLocation].SetValue(f.draft.Location)
	a.setMessage("✓ Location set", false)
}

func (a *App) submitForm() tea.Cmd {
	f := a.form
	f.err = nil
	if err := f.sync(clock()); err != nil {
		f.err = err
		return nil
	}

	task, err := a.store.Create(context.Background(), f.draft)
	if err != nil {
		var verr *tasks.ValidationError
		if errors.As(err, &verr) {
			f.err = verr
			f.setFocus(fieldIndex(verr.Field))
			return nil
		}
		f.err = err
		return nil
	}

	a.form = nil
	a.mode = modeList
	a.refresh()
	for i, t := range a.visible {
		if t.ID == task.ID {
			a.selectedIdx = i
		}
	}
	a.setMessage(fmt.Sprintf("✓ Created task: %s", shortID(task.ID)), false)
	return nil
}

func fieldIndex(name string) int {
	switch name {
	case "description":
		return fieldDescription
	case "location":
		return fieldLocation
	default:
		return fieldTitle
	}
}
