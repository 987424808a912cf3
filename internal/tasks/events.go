package tasks

import "github.com/fentz26/tasklog/internal/models"

// EventKind identifies what happened in an Event.
type EventKind string

const (
	EventCreated       EventKind = "created"
	EventStatusChanged EventKind = "status_changed"
	EventDeleted       EventKind = "deleted"
	// EventNotice carries a non-blocking CollaboratorError.
	EventNotice EventKind = "notice"
)

// Event is published to subscribers after a mutation has been committed.
type Event struct {
	Kind   EventKind
	TaskID string
	// Task is the task after the mutation. For EventDeleted it is the task
	// as it was just before removal.
	Task *models.Task
	Err  error
}
