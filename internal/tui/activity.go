package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fentz26/tasklog/internal/models"
)

func actionStyle(action models.LogAction) lipgloss.Style {
	switch action {
	case models.LogActionCreated:
		return lipgloss.NewStyle().Foreground(successColor)
	case models.LogActionDeleted:
		return lipgloss.NewStyle().Foreground(errorColor)
	case models.LogActionUpdated:
		return lipgloss.NewStyle().Foreground(warningColor)
	case models.LogActionStatusChanged:
		return lipgloss.NewStyle().Foreground(secondaryColor)
	default:
		return lipgloss.NewStyle()
	}
}

// renderActivityLog renders entries newest first for the log viewport.
func (a *App) renderActivityLog(entries []models.LogEntry) string {
	var b strings.Builder
	b.WriteString("\n  🕘 Activity Log\n")
	b.WriteString("  " + strings.Repeat("─", 40) + "\n\n")

	if len(entries) == 0 {
		b.WriteString("  Nothing has happened yet.\n")
		return b.String()
	}

	for _, e := range entries {
		style := actionStyle(e.Action)
		b.WriteString(fmt.Sprintf("  %s %s  %s\n",
			style.Render("●"),
			mutedStyle.Render(e.Timestamp.Local().Format("Jan 2, 2006 3:04 PM")),
			mutedStyle.Render(humanize.RelTime(e.Timestamp, clock(), "ago", "from now")),
		))
		b.WriteString(fmt.Sprintf("    %s\n", lipgloss.NewStyle().Bold(true).Render(e.TaskTitle)))
		b.WriteString(fmt.Sprintf("    %s\n", e.Details))
		if e.OldValue != nil {
			b.WriteString(fmt.Sprintf("    %s %s\n", labelStyle.Render("From:"), *e.OldValue))
		}
		if e.NewValue != nil {
			b.WriteString(fmt.Sprintf("    %s %s\n", labelStyle.Render("To:"), *e.NewValue))
		}
		b.WriteString("\n")
	}
	return b.String()
}
