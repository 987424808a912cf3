// Package tasks owns the task collection: creation, status changes and
// deletion, each mirrored into the activity log and persisted.
package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fentz26/tasklog/internal/audit"
	"github.com/fentz26/tasklog/internal/codec"
	"github.com/fentz26/tasklog/internal/models"
	"github.com/fentz26/tasklog/internal/store"
	"github.com/fentz26/tasklog/internal/view"
	"github.com/google/uuid"
)

// Notifier schedules and cancels local reminders.
type Notifier interface {
	Schedule(ctx context.Context, title string, fireAt time.Time) (string, error)
	Cancel(ctx context.Context, handle string) error
}

// Options configures a Store.
type Options struct {
	// Notifier is optional. Without one, scheduled tasks get a notice and
	// no notification id.
	Notifier Notifier
	Logger   *log.Logger
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// Store is the in-memory task collection.
//
// Mutations are serialized by write. Subscribers are called synchronously
// after a mutation commits and must not mutate the store from the callback.
type Store struct {
	kv       store.KV
	activity *audit.Log
	notifier Notifier
	logger   *log.Logger
	now      func() time.Time

	write sync.Mutex

	mu      sync.RWMutex
	tasks   []models.Task
	// seen is the blob last loaded or saved. Another process sharing the
	// KV backend changes the stored value away from it.
	seen    string
	subs    map[int]func(Event)
	nextSub int
}

// Open loads the persisted tasks from kv and returns a ready Store. Load
// failures are logged and the store starts empty.
func Open(ctx context.Context, kv store.KV, activity *audit.Log, opts Options) *Store {
	s := &Store{
		kv:       kv,
		activity: activity,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		now:      opts.Now,
		tasks:    []models.Task{},
		subs:     make(map[int]func(Event)),
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) {
	blob, ok, err := s.kv.Get(ctx, codec.TasksKey)
	if err != nil {
		s.logger.Error("load tasks failed", "err", &store.PersistenceError{Op: "load", Key: codec.TasksKey, Err: err})
		return
	}
	if !ok {
		return
	}
	tasks, err := codec.DecodeTasks(blob)
	if err != nil {
		s.logger.Error("tasks are corrupt, starting empty", "err", &store.PersistenceError{Op: "load", Key: codec.TasksKey, Err: err})
		if err := s.kv.Set(ctx, codec.TasksKey+".corrupt", blob); err != nil {
			s.logger.Warn("could not back up corrupt tasks", "err", err)
		}
		s.seen = blob
		return
	}
	s.tasks = tasks
	s.seen = blob
	s.logger.Debug("tasks loaded", "count", len(tasks))
}

// syncLocked adopts the stored tasks when another process wrote them since
// this store last loaded or saved. Must be called with write and mu held.
func (s *Store) syncLocked(ctx context.Context) bool {
	blob, ok, err := s.kv.Get(ctx, codec.TasksKey)
	if err != nil {
		s.logger.Warn("reload tasks failed", "err", &store.PersistenceError{Op: "load", Key: codec.TasksKey, Err: err})
		return false
	}
	if !ok || blob == s.seen {
		return false
	}
	tasks, err := codec.DecodeTasks(blob)
	if err != nil {
		s.logger.Warn("stored tasks unreadable, keeping in-memory copy", "err", err)
		return false
	}
	s.tasks = tasks
	s.seen = blob
	s.logger.Debug("tasks changed by another writer, reloaded", "count", len(tasks))
	return true
}

// Reload picks up changes another process made to the stored tasks. It
// reports whether anything was reloaded.
func (s *Store) Reload(ctx context.Context) bool {
	s.write.Lock()
	defer s.write.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked(ctx)
}

// Activity returns the activity log the store writes to.
func (s *Store) Activity() *audit.Log {
	return s.activity
}

// --- Mutations ---

// Create validates d and adds a new task. A failed reminder schedule does
// not fail the create; it is published as an EventNotice.
func (s *Store) Create(ctx context.Context, d Draft) (models.Task, error) {
	if err := d.Validate(); err != nil {
		return models.Task{}, err
	}

	s.write.Lock()
	defer s.write.Unlock()

	task := models.Task{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Location:    models.StringPtr(strings.TrimSpace(d.Location)),
		CreatedAt:   s.now(),
		Status:      models.TaskStatusInProgress,
		Files:       append([]string{}, d.Files...),
	}
	if d.UseCurrentLocation && d.Coordinates != nil {
		c := *d.Coordinates
		task.Coordinates = &c
	}

	var notice error
	if d.ScheduledFor != nil {
		at := d.ScheduledFor.UTC()
		task.ScheduledFor = &at
		handle, err := s.schedule(ctx, task.Title, at)
		if err != nil {
			notice = &CollaboratorError{Collaborator: "notifications", Err: err}
			s.logger.Warn("reminder not scheduled", "task", task.ID, "err", err)
		} else {
			task.NotificationID = &handle
		}
	}

	s.mu.Lock()
	s.syncLocked(ctx)
	s.tasks = append(s.tasks, task)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.activity.Append(ctx, audit.Record{
		TaskID:    task.ID,
		TaskTitle: task.Title,
		Action:    models.LogActionCreated,
		Details:   fmt.Sprintf("Task \"%s\" created", task.Title),
	})

	out := task.Clone()
	s.publish(Event{Kind: EventCreated, TaskID: task.ID, Task: &out})
	if notice != nil {
		s.publish(Event{Kind: EventNotice, TaskID: task.ID, Err: notice})
	}
	return task.Clone(), nil
}

func (s *Store) schedule(ctx context.Context, title string, at time.Time) (string, error) {
	if s.notifier == nil {
		return "", errNoNotifier
	}
	return s.notifier.Schedule(ctx, title, at)
}

// ChangeStatus sets the status of task id. Unknown ids are ignored.
func (s *Store) ChangeStatus(ctx context.Context, id string, status models.TaskStatus) error {
	if !status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("must be one of In Progress, Completed, Cancelled, got %q", status)}
	}

	s.write.Lock()
	defer s.write.Unlock()

	s.mu.Lock()
	s.syncLocked(ctx)
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	t := &s.tasks[i]
	old := t.Status
	now := s.now()
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	t.Status = status
	t.LastUpdated = &now
	task := t.Clone()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.activity.Append(ctx, audit.Record{
		TaskID:    task.ID,
		TaskTitle: task.Title,
		Action:    models.LogActionStatusChanged,
		Details:   fmt.Sprintf("Status changed from %s to %s", old, status),
		OldValue:  models.StringPtr(string(old)),
		NewValue:  models.StringPtr(string(status)),
	})

	s.publish(Event{Kind: EventStatusChanged, TaskID: task.ID, Task: &task})
	return nil
}

// Delete removes task id and cancels its reminder. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.write.Lock()
	defer s.write.Unlock()

	s.mu.Lock()
	s.syncLocked(ctx)
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	task := s.tasks[i].Clone()
	s.mu.Unlock()

	s.activity.Append(ctx, audit.Record{
		TaskID:    task.ID,
		TaskTitle: task.Title,
		Action:    models.LogActionDeleted,
		Details:   fmt.Sprintf("Task \"%s\" deleted", task.Title),
	})

	if task.NotificationID != nil && s.notifier != nil {
		if err := s.notifier.Cancel(ctx, *task.NotificationID); err != nil {
			s.logger.Warn("cancel reminder failed", "task", task.ID, "err", err)
		}
	}

	s.mu.Lock()
	// Only writers change the slice and we hold write, so i is still valid.
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(Event{Kind: EventDeleted, TaskID: task.ID, Task: &task})
	return nil
}

// --- Reads ---

// Get returns a copy of task id.
func (s *Store) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// Resolve expands a unique id prefix to the full id.
func (s *Store) Resolve(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", ErrTaskNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var match string
	for _, t := range s.tasks {
		if t.ID == prefix {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrTaskNotFound, prefix)
	}
	return match, nil
}

// Count returns the number of tasks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Tasks returns a copy of every task in insertion order.
func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// View returns the filtered and sorted tasks for display.
func (s *Store) View(o view.Options) []models.Task {
	return view.Apply(s.Tasks(), o)
}

// Subscribe registers fn to be called after every committed mutation. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) publish(e Event) {
	s.mu.RLock()
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}

// indexLocked must be called with mu held.
func (s *Store) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked must be called with mu held.
func (s *Store) persistLocked(ctx context.Context) {
	blob, err := codec.EncodeTasks(s.tasks)
	if err == nil {
		err = s.kv.Set(ctx, codec.TasksKey, blob)
	}
	if err != nil {
		s.logger.Error("persist tasks failed", "err", &store.PersistenceError{Op: "save", Key: codec.TasksKey, Err: err})
		return
	}
	s.seen = blob
}
