package tasks

import (
	"fmt"
	"strings"
	"time"
)

// ScheduleLayout is the absolute form accepted by ParseSchedule.
const ScheduleLayout = "2006-01-02 15:04"

// ParseSchedule reads a reminder time typed by the user. It accepts an
// absolute "YYYY-MM-DD HH:MM" in loc, or a duration from now such as "2h",
// "+90m" or "in 1h30m". An empty string means no reminder.
func ParseSchedule(s string, now time.Time, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}

	if at, err := time.ParseInLocation(ScheduleLayout, s, loc); err == nil {
		at = at.UTC()
		return &at, nil
	}

	rel := strings.TrimPrefix(strings.TrimPrefix(s, "in "), "+")
	d, err := time.ParseDuration(strings.TrimSpace(rel))
	if err != nil {
		return nil, fmt.Errorf("invalid reminder time %q (use %q or a duration like 2h)", s, "YYYY-MM-DD HH:MM")
	}
	if d <= 0 {
		return nil, fmt.Errorf("reminder duration %q must be positive", s)
	}
	at := now.Add(d).UTC()
	return &at, nil
}
