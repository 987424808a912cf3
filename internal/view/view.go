// Package view computes the filtered, sorted projection of the task list.
package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fentz26/tasklog/internal/models"
)

// FilterAll disables status filtering.
const FilterAll = "All"

// SortKey selects the field tasks are ordered by.
type SortKey string

const (
	SortByDate   SortKey = "date"
	SortByStatus SortKey = "status"
)

// Direction is the sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Options holds every input of the derived view besides the tasks.
type Options struct {
	// Filter is FilterAll or a task status.
	Filter    string
	SortBy    SortKey
	Direction Direction
}

// DefaultOptions shows every task, newest first.
func DefaultOptions() Options {
	return Options{Filter: FilterAll, SortBy: SortByDate, Direction: Descending}
}

// Filters lists the filter cycle: all, then each status.
func Filters() []string {
	out := []string{FilterAll}
	for _, s := range models.Statuses {
		out = append(out, string(s))
	}
	return out
}

// NextFilter returns the filter after the current one in the cycle.
func (o Options) NextFilter() Options {
	filters := Filters()
	for i, f := range filters {
		if f == o.Filter {
			o.Filter = filters[(i+1)%len(filters)]
			return o
		}
	}
	o.Filter = FilterAll
	return o
}

// ToggleSortKey switches between date and status ordering.
func (o Options) ToggleSortKey() Options {
	if o.SortBy == SortByStatus {
		o.SortBy = SortByDate
	} else {
		o.SortBy = SortByStatus
	}
	return o
}

// ToggleDirection flips the sort direction.
func (o Options) ToggleDirection() Options {
	if o.Direction == Ascending {
		o.Direction = Descending
	} else {
		o.Direction = Ascending
	}
	return o
}

// Apply filters and sorts tasks. The input slice is not modified and ties
// keep their input order.
func Apply(tasks []models.Task, o Options) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if o.Filter != "" && o.Filter != FilterAll && string(t.Status) != o.Filter {
			continue
		}
		out = append(out, t)
	}

	desc := o.Direction == Descending
	switch o.SortBy {
	case SortByStatus:
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return out[j].Status < out[i].Status
			}
			return out[i].Status < out[j].Status
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return out[j].CreatedAt.Before(out[i].CreatedAt)
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	}
	return out
}

// ParseFilter accepts "all" or any spelling models.ParseTaskStatus accepts.
func ParseFilter(s string) (string, error) {
	if s == "" || strings.EqualFold(s, FilterAll) {
		return FilterAll, nil
	}
	status, err := models.ParseTaskStatus(s)
	if err != nil {
		return "", err
	}
	return string(status), nil
}

// ParseSortKey parses "date" or "status".
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(s)) {
	case SortByDate, "":
		return SortByDate, nil
	case SortByStatus:
		return SortByStatus, nil
	}
	return "", fmt.Errorf("unknown sort key %q (date, status)", s)
}

// ParseDirection parses "asc" or "desc".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending", "":
		return Descending, nil
	}
	return "", fmt.Errorf("unknown sort order %q (asc, desc)", s)
}
