// Package scheduler delivers task reminders at their scheduled time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fentz26/tasklog/internal/models"
	"github.com/fentz26/tasklog/internal/store"
)

// ErrPastFireTime is returned when a reminder is scheduled at or before now.
var ErrPastFireTime = errors.New("reminder time must be in the future")

// DeliverFunc receives each reminder once it is due.
type DeliverFunc func(models.Reminder)

// Scheduler stores reminders and fires them from a polling loop.
type Scheduler struct {
	store  *store.Store
	config *Config
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	deliver DeliverFunc
	running bool

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new scheduler.
func New(s *store.Store, cfg *Config, logger *log.Logger) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		store:  s,
		config: cfg,
		logger: logger.WithPrefix("scheduler"),
		now:    func() time.Time { return time.Now().UTC() },
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetDeliver sets the callback invoked for due reminders.
func (sch *Scheduler) SetDeliver(fn DeliverFunc) {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	sch.deliver = fn
}

// Schedule stores a reminder for title at fireAt and returns its id.
func (sch *Scheduler) Schedule(ctx context.Context, title string, fireAt time.Time) (string, error) {
	if !fireAt.After(sch.now()) {
		return "", fmt.Errorf("schedule %q at %s: %w", title, fireAt.Format(time.RFC3339), ErrPastFireTime)
	}
	r, err := sch.store.CreateReminder(ctx, title, fireAt)
	if err != nil {
		return "", err
	}
	sch.logger.Debug("reminder scheduled", "id", r.ID, "fire_at", r.FireAt)
	return r.ID, nil
}

// Cancel removes a pending reminder. Unknown handles are ignored.
func (sch *Scheduler) Cancel(ctx context.Context, handle string) error {
	if err := sch.store.DeleteReminder(ctx, handle); err != nil {
		return err
	}
	sch.logger.Debug("reminder cancelled", "id", handle)
	return nil
}

// Pending lists reminders that have not fired yet.
func (sch *Scheduler) Pending(ctx context.Context) ([]models.Reminder, error) {
	return sch.store.PendingReminders(ctx)
}

// Start begins the scheduler loop.
func (sch *Scheduler) Start() {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	if sch.running {
		return
	}
	sch.running = true

	sch.wg.Add(1)
	go sch.schedulerLoop()
	sch.logger.Info("Scheduler started", "interval", sch.config.interval())
}

// Stop gracefully stops the scheduler.
func (sch *Scheduler) Stop() {
	sch.cancel()
	sch.wg.Wait()

	sch.mu.Lock()
	wasRunning := sch.running
	sch.running = false
	sch.mu.Unlock()
	if wasRunning {
		sch.logger.Info("Scheduler stopped")
	}
}

// schedulerLoop polls for due reminders until stopped.
func (sch *Scheduler) schedulerLoop() {
	defer sch.wg.Done()

	ticker := time.NewTicker(sch.config.interval())
	defer ticker.Stop()

	for {
		select {
		case <-sch.ctx.Done():
			return
		case <-ticker.C:
			sch.pollAndDeliver(sch.ctx)
		}
	}
}

// pollAndDeliver fires every due reminder and returns how many fired.
func (sch *Scheduler) pollAndDeliver(ctx context.Context) int {
	now := sch.now()
	due, err := sch.store.DueReminders(ctx, now)
	if err != nil {
		sch.logger.Error("Error loading due reminders", "err", err)
		return 0
	}

	sch.mu.Lock()
	deliver := sch.deliver
	sch.mu.Unlock()

	fired := 0
	for _, r := range due {
		// Mark first so a slow callback cannot cause a second delivery.
		claimed, err := sch.store.MarkReminderFired(ctx, r.ID, now)
		if err != nil {
			sch.logger.Error("Error marking reminder fired", "id", r.ID, "err", err)
			continue
		}
		if !claimed {
			sch.logger.Debug("Reminder already fired elsewhere", "id", r.ID)
			continue
		}
		r.FiredAt = &now
		sch.logger.Info("Reminder due", "id", r.ID, "title", r.Title)
		if deliver != nil {
			deliver(r)
		}
		fired++
	}
	return fired
}
