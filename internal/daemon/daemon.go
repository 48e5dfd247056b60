package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"

	"scanhub/internal/api"
	"scanhub/internal/audit"
	"scanhub/internal/config"
	"scanhub/internal/logging"
	"scanhub/internal/notifications"
	"scanhub/internal/store"
	"scanhub/internal/workflow"
)

// Daemon owns the long-running pieces of scanhubd: the store, the workflow
// engine, the audit sink, and the HTTP API server. A file lock guarantees a
// single instance per data directory.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	engine   *workflow.Engine
	chapters *api.ChapterService
	sink     *audit.StoreSink
	notifier notifications.Service
	lock     *flock.Flock
	api      *apiServer
}

// New wires a daemon from configuration. The store is opened immediately;
// Start acquires the instance lock and begins serving.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	sink := audit.NewStoreSink(st)
	engine := workflow.NewEngine(st, st, sink, logger)
	notifier := notifications.NewService(cfg)
	chapters := api.NewChapterService(engine, st, notifier, logger)

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		engine:   engine,
		chapters: chapters,
		sink:     sink,
		notifier: notifier,
		lock:     flock.New(filepath.Join(cfg.Paths.DataDir, "scanhubd.lock")),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// LockPath returns the instance lock file location.
func (d *Daemon) LockPath() string {
	return d.lock.Path()
}

// Store exposes the daemon's store for the CLI embedded mode and tests.
func (d *Daemon) Store() *store.Store {
	return d.store
}

// Start acquires the single-instance lock and starts the API server. It
// returns immediately; shutdown is driven by ctx cancellation.
func (d *Daemon) Start(ctx context.Context) error {
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another scanhubd instance holds %s", d.lock.Path())
	}

	if err := d.api.start(ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.logger.Info("daemon started",
		logging.String("database", d.store.Path()),
		logging.String("lock", d.lock.Path()))
	return nil
}

// Stop shuts the API server down, releases the lock, and closes the store.
func (d *Daemon) Stop() {
	if d.api != nil {
		d.api.stop()
	}
	if d.lock != nil {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("release instance lock", logging.Error(err))
		}
	}
	if err := d.store.Close(); err != nil {
		d.logger.Warn("close store", logging.Error(err))
	}
	d.logger.Info("daemon stopped")
}
