package tui

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fentz26/tasklog/internal/attach"
)

func newFilePicker(dir string, height int) filepicker.Model {
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.ShowHidden = false
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.DirAllowed = false // only files can be attached
	fp.FileAllowed = true
	fp.Height = max(5, height)
	return fp
}

func (a *App) openFilePicker() tea.Cmd {
	dir := a.startDir
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		} else {
			dir = "."
		}
	}
	a.picker = newFilePicker(dir, a.height-8)
	a.mode = modeFiles
	return a.picker.Init()
}

func (a *App) updateFiles(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		a.mode = modeForm
		return a, nil
	}

	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)

	if didSelect, path := a.picker.DidSelectFile(msg); didSelect {
		a.attachFile(path)
		return a, nil
	}
	return a, cmd
}

// attachFile adds path to the open form's draft and returns to the form.
func (a *App) attachFile(path string) {
	a.mode = modeForm
	if a.form == nil {
		return
	}
	added, err := a.form.draft.Attach(context.Background(), attach.NewPathPicker(path))
	if err != nil {
		a.setMessage("⚠ "+err.Error(), true)
		return
	}
	if added {
		a.setMessage("✓ Attached "+path, false)
	}
}

func (a *App) renderFilePicker() string {
	var b strings.Builder
	b.WriteString("\n  📎 Attach a file\n")
	b.WriteString("  " + mutedStyle.Render(a.picker.CurrentDirectory) + "\n\n")
	b.WriteString(a.picker.View())
	return b.String()
}
