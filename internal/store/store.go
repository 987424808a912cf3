// Package store provides SQLite-backed persistence for tasklog.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/tasklog/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store provides access to the tasklog SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		fire_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		fired_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_reminders_fire_at ON reminders(fire_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- KV Operations ---

// Get returns the value stored under key. The boolean is false when the key
// has never been written.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query kv %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert kv %s: %w", key, err)
	}
	return nil
}

// --- Reminder Operations ---

// CreateReminder inserts a pending reminder.
func (s *Store) CreateReminder(ctx context.Context, title string, fireAt time.Time) (*models.Reminder, error) {
	r := &models.Reminder{
		ID:        uuid.New().String(),
		Title:     title,
		FireAt:    fireAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (id, title, fire_at, created_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.Title, r.FireAt, r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}
	return r, nil
}

// GetReminder retrieves a reminder by ID. It returns nil when none exists.
func (s *Store) GetReminder(ctx context.Context, id string) (*models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, fire_at, created_at, fired_at FROM reminders WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query reminder: %w", err)
	}
	reminders, err := scanReminders(rows)
	if err != nil {
		return nil, err
	}
	if len(reminders) == 0 {
		return nil, nil
	}
	return &reminders[0], nil
}

// DeleteReminder removes a reminder. Deleting an unknown id is not an error.
func (s *Store) DeleteReminder(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// DueReminders returns unfired reminders whose fire time is at or before now.
func (s *Store) DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, fire_at, created_at, fired_at FROM reminders
		 WHERE fired_at IS NULL AND fire_at <= ? ORDER BY fire_at ASC`,
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	return scanReminders(rows)
}

// PendingReminders returns every unfired reminder ordered by fire time.
func (s *Store) PendingReminders(ctx context.Context) ([]models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, fire_at, created_at, fired_at FROM reminders
		 WHERE fired_at IS NULL ORDER BY fire_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending reminders: %w", err)
	}
	return scanReminders(rows)
}

// MarkReminderFired claims a reminder for delivery. It returns false when
// the reminder is unknown or another poller already fired it.
func (s *Store) MarkReminderFired(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET fired_at = ? WHERE id = ? AND fired_at IS NULL`,
		at.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("mark reminder fired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark reminder fired: %w", err)
	}
	return n == 1, nil
}

func scanReminders(rows *sql.Rows) ([]models.Reminder, error) {
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		var r models.Reminder
		var firedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.Title, &r.FireAt, &r.CreatedAt, &firedAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		if firedAt.Valid {
			t := firedAt.Time
			r.FiredAt = &t
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}
