package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginTop(1)
)

func (a *App) renderTaskDetail() string {
	t, ok := a.store.Get(a.selectedID)
	if !ok {
		return "\n  Task no longer exists.\n"
	}

	var b strings.Builder
	field := func(label, value string) {
		b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label+":")), value))
	}

	b.WriteString(fmt.Sprintf("\n  📋 %s\n", lipgloss.NewStyle().Bold(true).Render(t.Title)))
	field("ID", shortID(t.ID))
	field("Status", formatStatus(t.Status))
	if t.Description != "" {
		field("Description", t.Description)
	}
	if t.Location != nil {
		loc := *t.Location
		if t.Coordinates != nil {
			loc += mutedStyle.Render(fmt.Sprintf(" (%.5f, %.5f)", t.Coordinates.Latitude, t.Coordinates.Longitude))
		}
		field("Location", loc)
	}
	field("Created", formatTime(t.CreatedAt))
	if t.LastUpdated != nil {
		field("Updated", formatTime(*t.LastUpdated))
	}
	if t.ScheduledFor != nil {
		reminder := formatTime(*t.ScheduledFor)
		if t.NotificationID == nil {
			reminder += mutedStyle.Render(" (not scheduled)")
		}
		field("Reminder", reminder)
	}
	if len(t.Files) > 0 {
		b.WriteString(sectionStyle.Render("  📎 Files") + "\n")
		for _, f := range t.Files {
			b.WriteString(fmt.Sprintf("    • %s\n", f))
		}
	}

	entries := a.store.Activity().ForTask(t.ID)
	if len(entries) > 0 {
		b.WriteString(sectionStyle.Render("  📜 History") + "\n")
		for i, e := range entries {
			if i >= 5 {
				b.WriteString(mutedStyle.Render(fmt.Sprintf("    … %d more (press l on the list)", len(entries)-i)) + "\n")
				break
			}
			b.WriteString(fmt.Sprintf("    • %s %s\n", e.Details, mutedStyle.Render(humanize.RelTime(e.Timestamp, clock(), "ago", "from now"))))
		}
	}

	return b.String()
}

// formatTime shows local wall time followed by a relative hint.
func formatTime(t time.Time) string {
	rel := humanize.RelTime(t, clock(), "ago", "from now")
	return t.Local().Format("Jan 2, 2006 3:04 PM") + " " + mutedStyle.Render("("+rel+")")
}
