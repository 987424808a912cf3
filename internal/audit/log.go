// Package audit keeps the append-only activity log that mirrors every task
// mutation.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fentz26/tasklog/internal/codec"
	"github.com/fentz26/tasklog/internal/models"
	"github.com/fentz26/tasklog/internal/store"
	"github.com/google/uuid"
)

// Record is a log entry before it has an id and timestamp.
type Record struct {
	TaskID    string
	TaskTitle string
	Action    models.LogAction
	Details   string
	OldValue  *string
	NewValue  *string
}

// Options configures a Log.
type Options struct {
	Logger *log.Logger
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// Log is the activity log. Entries are kept newest first and are never
// mutated or removed.
type Log struct {
	kv     store.KV
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries []models.LogEntry
	// seen is the blob last loaded or saved.
	seen    string
	subs    map[int]func(models.LogEntry)
	nextSub int
}

// Open loads the persisted log from kv and returns a ready Log. Load
// failures are logged and the log starts empty.
func Open(ctx context.Context, kv store.KV, opts Options) *Log {
	l := &Log{
		kv:      kv,
		logger:  opts.Logger,
		now:     opts.Now,
		entries: []models.LogEntry{},
		subs:    make(map[int]func(models.LogEntry)),
	}
	if l.logger == nil {
		l.logger = log.Default()
	}
	if l.now == nil {
		l.now = func() time.Time { return time.Now().UTC() }
	}
	l.load(ctx)
	return l
}

func (l *Log) load(ctx context.Context) {
	blob, ok, err := l.kv.Get(ctx, codec.LogKey)
	if err != nil {
		l.logger.Error("load activity log failed", "err", &store.PersistenceError{Op: "load", Key: codec.LogKey, Err: err})
		return
	}
	if !ok {
		return
	}
	entries, err := codec.DecodeLog(blob)
	if err != nil {
		l.logger.Error("activity log is corrupt, starting empty", "err", &store.PersistenceError{Op: "load", Key: codec.LogKey, Err: err})
		if err := l.kv.Set(ctx, codec.LogKey+".corrupt", blob); err != nil {
			l.logger.Warn("could not back up corrupt activity log", "err", err)
		}
		l.seen = blob
		return
	}
	l.entries = entries
	l.seen = blob
	l.logger.Debug("activity log loaded", "entries", len(entries))
}

// Append assigns an id and timestamp to rec, prepends it and persists the
// log.
func (l *Log) Append(ctx context.Context, rec Record) models.LogEntry {
	entry := models.LogEntry{
		ID:        uuid.New().String(),
		TaskID:    rec.TaskID,
		TaskTitle: rec.TaskTitle,
		Action:    rec.Action,
		Timestamp: l.now(),
		Details:   rec.Details,
		OldValue:  rec.OldValue,
		NewValue:  rec.NewValue,
	}

	l.mu.Lock()
	l.syncLocked(ctx)
	l.entries = append([]models.LogEntry{entry}, l.entries...)
	l.persistLocked(ctx)
	subs := l.subscribers()
	l.mu.Unlock()

	for _, fn := range subs {
		fn(entry)
	}
	return entry
}

// Entries returns a copy of the full log, newest first.
func (l *Log) Entries() []models.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ForTask returns the entries referring to taskID, newest first.
func (l *Log) ForTask(taskID string) []models.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []models.LogEntry
	for _, e := range l.entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Subscribe registers fn to be called after every append. The returned
// function removes the subscription.
func (l *Log) Subscribe(fn func(models.LogEntry)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

// subscribers must be called with mu held.
func (l *Log) subscribers() []func(models.LogEntry) {
	out := make([]func(models.LogEntry), 0, len(l.subs))
	for _, fn := range l.subs {
		out = append(out, fn)
	}
	return out
}

// Reload picks up entries another process appended to the stored log.
func (l *Log) Reload(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.syncLocked(ctx)
}

// syncLocked adopts the stored log when another writer changed it. Must be
// called with mu held.
func (l *Log) syncLocked(ctx context.Context) bool {
	blob, ok, err := l.kv.Get(ctx, codec.LogKey)
	if err != nil {
		l.logger.Warn("reload activity log failed", "err", &store.PersistenceError{Op: "load", Key: codec.LogKey, Err: err})
		return false
	}
	if !ok || blob == l.seen {
		return false
	}
	entries, err := codec.DecodeLog(blob)
	if err != nil {
		l.logger.Warn("stored activity log unreadable, keeping in-memory copy", "err", err)
		return false
	}
	l.entries = entries
	l.seen = blob
	return true
}

// persistLocked must be called with mu held.
func (l *Log) persistLocked(ctx context.Context) {
	blob, err := codec.EncodeLog(l.entries)
	if err == nil {
		err = l.kv.Set(ctx, codec.LogKey, blob)
	}
	if err != nil {
		l.logger.Error("persist activity log failed", "err", &store.PersistenceError{Op: "save", Key: codec.LogKey, Err: err})
		return
	}
	l.seen = blob
}
