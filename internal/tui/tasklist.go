package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fentz26/tasklog/internal/models"
)

var (
	statusInProgress = lipgloss.NewStyle().Foreground(warningColor)
	statusCompleted  = lipgloss.NewStyle().Foreground(successColor)
	statusCancelled  = lipgloss.NewStyle().Foreground(errorColor)
)

func (a *App) renderTaskList(height int) string {
	if len(a.visible) == 0 {
		if a.store.Count() == 0 {
			return "\n  No tasks yet. Press n to create one.\n"
		}
		return "\n  No tasks match this filter. Press Tab to change it.\n"
	}

	var lines []string
	for i, task := range a.visible {
		if i == a.selectedIdx {
			lines = append(lines, selectedStyle.Render(fmt.Sprintf("▶ %s  %s", statusIcon(task.Status), taskLine(task))))
		} else {
			lines = append(lines, taskItemStyle.Render(fmt.Sprintf("  %s  %s", formatStatusIcon(task.Status), taskLine(task))))
		}
	}

	// Limit visible lines
	if len(lines) > height {
		start := a.selectedIdx - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}

// taskLine is the one-line summary shown in the list.
func taskLine(t models.Task) string {
	parts := []string{t.Title, mutedStyle.Render(humanize.RelTime(t.CreatedAt, clock(), "ago", "from now"))}
	if t.Location != nil {
		parts = append(parts, "📍")
	}
	if len(t.Files) > 0 {
		parts = append(parts, fmt.Sprintf("📎%d", len(t.Files)))
	}
	if t.NotificationID != nil {
		parts = append(parts, "⏰")
	}
	return strings.Join(parts, "  ")
}

func formatStatus(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusInProgress:
		return statusInProgress.Render("◐ IN PROGRESS")
	case models.TaskStatusCompleted:
		return statusCompleted.Render("● COMPLETED")
	case models.TaskStatusCancelled:
		return statusCancelled.Render("✗ CANCELLED")
	default:
		return string(status)
	}
}

func formatStatusIcon(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusInProgress:
		return statusInProgress.Render(statusIcon(status))
	case models.TaskStatusCompleted:
		return statusCompleted.Render(statusIcon(status))
	case models.TaskStatusCancelled:
		return statusCancelled.Render(statusIcon(status))
	default:
		return statusIcon(status)
	}
}

func statusIcon(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusInProgress:
		return "◐"
	case models.TaskStatusCompleted:
		return "●"
	case models.TaskStatusCancelled:
		return "✗"
	default:
		return "?"
	}
}
