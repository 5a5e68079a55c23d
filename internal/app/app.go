package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sandeepkv93/errands/internal/config"
	"github.com/sandeepkv93/errands/internal/persist"
	"github.com/sandeepkv93/errands/internal/scheduler"
	"github.com/sandeepkv93/errands/internal/settings"
	"github.com/sandeepkv93/errands/internal/storage"
	"github.com/sandeepkv93/errands/internal/store"
	"github.com/sandeepkv93/errands/internal/watch"
)

type Options struct {
	Logger *slog.Logger
	Clock  persist.Clock
	// Timer defaults to the app's scheduler engine.
	Timer persist.Timer
	// DisableWatch turns off external-edit detection regardless of config.
	DisableWatch bool
}

// App owns every long-lived component. All methods must be called from one
// goroutine; scheduled saves arrive on Engine.C and are run with RunEvent.
type App struct {
	Config        config.Config
	Logger        *slog.Logger
	Backend       storage.Backend
	Tasks         *store.TaskStore
	Settings      *settings.Store
	TaskSaver     *persist.Coalescer
	SettingsSaver *persist.Coalescer
	Engine        *scheduler.Engine
	Watcher       *watch.Watcher

	ctx         context.Context
	lastWritten map[string][]byte
}

func Open(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:      cfg,
		Logger:      opts.Logger,
		Backend:     backend,
		Engine:      scheduler.NewEngine(cfg.SchedulerBuffer),
		ctx:         context.WithoutCancel(ctx),
		lastWritten: make(map[string][]byte),
	}
	a.Engine.Start()
	timer := opts.Timer
	if timer == nil {
		timer = a.Engine
	}

	a.Tasks = store.New(store.Options{Logger: opts.Logger.With("component", "tasks")})
	a.TaskSaver = persist.NewCoalescer(a.writer(store.DocumentPath, a.Tasks.Marshal), persist.Options{
		Name:     "tasks",
		Cooldown: cfg.SaveCooldown,
		Clock:    opts.Clock,
		Timer:    timer,
		Logger:   opts.Logger,
	})
	a.Tasks.SetSaver(a.TaskSaver)

	a.Settings = settings.NewStore(nil, opts.Logger.With("component", "settings"))
	a.SettingsSaver = persist.NewCoalescer(a.writer(settings.DocumentPath, a.Settings.Marshal), persist.Options{
		Name:     "settings",
		Cooldown: cfg.SaveCooldown,
		Clock:    opts.Clock,
		Timer:    timer,
		Logger:   opts.Logger,
	})
	a.Settings.SetSaver(a.SettingsSaver)

	if err := a.loadTasks(); err != nil {
		_ = a.shutdown()
		return nil, err
	}
	if err := a.loadSettings(); err != nil {
		// Settings problems are never fatal; the next change retries the save.
		a.Logger.Warn("settings save failed", "error", err)
	}

	if cfg.WatchExternal && cfg.Backend == config.BackendFile && !opts.DisableWatch {
		w, err := watch.New(cfg.DataDir, []string{store.DocumentPath, settings.DocumentPath}, watch.Options{Logger: opts.Logger})
		if err != nil {
			a.Logger.Warn("external edit watch disabled", "error", err)
		} else if err := w.Start(ctx); err != nil {
			w.Stop()
			a.Logger.Warn("external edit watch disabled", "error", err)
		} else {
			a.Watcher = w
		}
	}
	return a, nil
}

func openBackend(cfg config.Config) (storage.Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return storage.OpenSQLite(cfg.DatabasePath())
	default:
		return storage.NewFileBackend(cfg.DataDir)
	}
}

// writer returns the save callback of one document.
func (a *App) writer(path string, marshal func() ([]byte, error)) func() error {
	return func() error {
		data, err := marshal()
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		if err := a.Backend.Write(a.ctx, path, data); err != nil {
			return err
		}
		a.lastWritten[path] = data
		return nil
	}
}

func (a *App) read(path string) ([]byte, error) {
	data, err := a.Backend.Read(a.ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return data, err
}

func (a *App) loadTasks() error {
	data, err := a.read(store.DocumentPath)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	if err := a.Tasks.Load(data); err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	a.lastWritten[store.DocumentPath] = data
	return nil
}

func (a *App) loadSettings() error {
	data, err := a.read(settings.DocumentPath)
	if err != nil {
		a.Logger.Warn("settings unreadable, using defaults", "error", err)
		data = nil
	}
	a.lastWritten[settings.DocumentPath] = data
	return a.Settings.Load(data)
}

// RunEvent runs a scheduled callback delivered on Engine.C.
func (a *App) RunEvent(ev scheduler.Event) error {
	return ev.Run()
}

// ReloadIfChanged reloads a document that was changed by another process.
// It does nothing while a save of the same document is pending, since that
// save will overwrite the external edit anyway.
func (a *App) ReloadIfChanged(name string) (bool, error) {
	var saver *persist.Coalescer
	switch name {
	case store.DocumentPath:
		saver = a.TaskSaver
	case settings.DocumentPath:
		saver = a.SettingsSaver
	default:
		return false, nil
	}
	if saver.State() == persist.PendingFlush {
		a.Logger.Warn("external edit ignored, local save pending", "document", name)
		return false, nil
	}
	data, err := a.read(name)
	if err != nil {
		return false, err
	}
	if bytes.Equal(data, a.lastWritten[name]) {
		return false, nil
	}

	switch name {
	case store.DocumentPath:
		if err := a.Tasks.Load(data); err != nil {
			return false, err
		}
	case settings.DocumentPath:
		if err := a.Settings.Load(data); err != nil {
			a.Logger.Warn("settings save failed", "error", err)
		}
	}
	a.lastWritten[name] = data
	a.Logger.Info("reloaded after external edit", "document", name)
	return true, nil
}

// Flush writes every pending document now.
func (a *App) Flush() error {
	return errors.Join(a.TaskSaver.Flush(), a.SettingsSaver.Flush())
}

// Close flushes pending saves and releases resources.
func (a *App) Close() error {
	flushErr := a.Flush()
	return errors.Join(flushErr, a.shutdown())
}

func (a *App) shutdown() error {
	if a.Watcher != nil {
		a.Watcher.Stop()
	}
	a.Engine.Stop()
	return a.Backend.Close()
}
