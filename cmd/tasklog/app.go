package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/fentz26/tasklog/internal/audit"
	"github.com/fentz26/tasklog/internal/config"
	"github.com/fentz26/tasklog/internal/location"
	"github.com/fentz26/tasklog/internal/logging"
	"github.com/fentz26/tasklog/internal/models"
	"github.com/fentz26/tasklog/internal/scheduler"
	"github.com/fentz26/tasklog/internal/store"
	"github.com/fentz26/tasklog/internal/tasks"
)

// app wires the stores and collaborators for one command invocation.
type app struct {
	home      string
	cfg       *config.Config
	logger    *log.Logger
	db        *store.Store
	activity  *audit.Log
	tasks     *tasks.Store
	scheduler *scheduler.Scheduler
	locator   location.Locator

	closers []func() error
}

func resolveHome() string {
	if homeDir != "" {
		return homeDir
	}
	return config.DefaultHome()
}

func loadConfig(home string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromHome(home)
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openApp loads config, opens storage and loads both collections before
// returning, so no mutation can run ahead of the load.
func openApp(ctx context.Context, logOut io.Writer) (*app, error) {
	home := resolveHome()
	cfg, err := loadConfig(home)
	if err != nil {
		return nil, err
	}

	logOpts := logging.DefaultOptions()
	logOpts.Level = cfg.Log.Level
	logOpts.Format = cfg.Log.Format
	logger := logging.New(logOut, logOpts)

	// Reminders always live in SQLite.
	db, err := store.New(config.DBPath(home))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &app{home: home, cfg: cfg, logger: logger, db: db}
	a.closers = append(a.closers, db.Close)

	var kv store.KV
	switch cfg.Backend {
	case config.BackendRedis:
		r, err := store.NewRedisKV(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, r.Close)
		kv = r
	case config.BackendMemory:
		kv = store.NewMemoryKV()
	default:
		kv = db
	}
	logger.Debug("storage opened", "backend", cfg.Backend, "home", home)

	a.scheduler = scheduler.New(db, &cfg.Reminders, logger)
	a.activity = audit.Open(ctx, kv, audit.Options{Logger: logger})
	a.tasks = tasks.Open(ctx, kv, a.activity, tasks.Options{
		Notifier: a.scheduler,
		Logger:   logger,
	})
	a.locator = location.NewFixed(cfg.Location.Enabled, models.Coordinates{
		Latitude:  cfg.Location.Latitude,
		Longitude: cfg.Location.Longitude,
	}, cfg.Location.Address)

	return a, nil
}

// Close releases storage in reverse order of opening.
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

