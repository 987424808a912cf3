// Package models defines the core domain types for tasklog.
package models

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusCancelled  TaskStatus = "Cancelled"
)

// Statuses lists every valid status in display order.
var Statuses = []TaskStatus{TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled}

// Valid reports whether s is one of the enumerated statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// ParseTaskStatus accepts the stored form ("In Progress") as well as
// command-line friendly spellings ("in-progress", "inprogress", "done").
func ParseTaskStatus(s string) (TaskStatus, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
	switch key {
	case "inprogress", "progress", "open":
		return TaskStatusInProgress, nil
	case "completed", "complete", "done":
		return TaskStatusCompleted, nil
	case "cancelled", "canceled", "cancel":
		return TaskStatusCancelled, nil
	}
	return "", fmt.Errorf("unknown status %q (in-progress, completed, cancelled)", s)
}

// Coordinates is a device-derived position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Task represents a single to-do item.
type Task struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Location       *string      `json:"location,omitempty"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	Status         TaskStatus   `json:"status"`
	LastUpdated    *time.Time   `json:"lastUpdated,omitempty"`
	Files          []string     `json:"files"`
	ScheduledFor   *time.Time   `json:"scheduledFor,omitempty"`
	NotificationID *string      `json:"notificationId,omitempty"`
}

// Clone returns a deep copy so callers cannot alias store-owned state.
func (t Task) Clone() Task {
	c := t
	if t.Location != nil {
		v := *t.Location
		c.Location = &v
	}
	if t.Coordinates != nil {
		v := *t.Coordinates
		c.Coordinates = &v
	}
	if t.LastUpdated != nil {
		v := *t.LastUpdated
		c.LastUpdated = &v
	}
	if t.ScheduledFor != nil {
		v := *t.ScheduledFor
		c.ScheduledFor = &v
	}
	if t.NotificationID != nil {
		v := *t.NotificationID
		c.NotificationID = &v
	}
	c.Files = make([]string, len(t.Files))
	copy(c.Files, t.Files)
	return c
}

// LogAction is the kind of mutation a LogEntry records.
type LogAction string

const (
	LogActionCreated       LogAction = "created"
	LogActionUpdated       LogAction = "updated"
	LogActionDeleted       LogAction = "deleted"
	LogActionStatusChanged LogAction = "status_changed"
)

// LogEntry is an immutable record of one mutation applied to a task.
// TaskID is a weak reference and may point at a deleted task.
type LogEntry struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	TaskTitle string    `json:"taskTitle"`
	Action    LogAction `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details"`
	OldValue  *string   `json:"oldValue,omitempty"`
	NewValue  *string   `json:"newValue,omitempty"`
}

// Reminder is a scheduled local notification for a task.
type Reminder struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	FireAt    time.Time  `json:"fire_at"`
	CreatedAt time.Time  `json:"created_at"`
	FiredAt   *time.Time `json:"fired_at,omitempty"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
