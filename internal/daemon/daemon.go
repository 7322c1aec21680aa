// Package daemon wires capture, delivery, and device monitoring into a single
// long-running process guarded by a file lock.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"cardwatch/internal/config"
	"cardwatch/internal/logging"
	"cardwatch/internal/metrics"
	"cardwatch/internal/outbox"
	"cardwatch/internal/preflight"
	"cardwatch/internal/reader"
	"cardwatch/internal/syncer"
)

// Daemon owns the component lifecycle for a cardwatchd process. Exactly one
// daemon may run per data directory; the instance lock enforces that a single
// process appends to and drains a given outbox.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *outbox.Store
	syncer   *syncer.Syncer
	capture  *reader.Capture
	monitor  *reader.Monitor
	recorder *metrics.Recorder

	lockPath string
	lock     *flock.Flock

	mu          sync.Mutex
	cancel      context.CancelFunc
	metricsDone chan struct{}
	running     atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	DatabasePath string
	Outbox       outbox.Summary
}

// New constructs a daemon with initialized dependencies. The monitor and
// recorder may be nil when no reader device or metrics listener is configured.
func New(cfg *config.Config, store *outbox.Store, logger *slog.Logger, sync *syncer.Syncer, capture *reader.Capture, monitor *reader.Monitor, recorder *metrics.Recorder) (*Daemon, error) {
	if cfg == nil || store == nil || sync == nil || capture == nil {
		return nil, errors.New("daemon requires config, store, syncer, and capture")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		syncer:   sync,
		capture:  capture,
		monitor:  monitor,
		recorder: recorder,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the components. It fails when
// another daemon already holds the lock for the same data directory.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !ok {
		return errors.New("another cardwatchd instance is already running for this data directory")
	}

	d.logPreflight(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	if err := d.syncer.Start(runCtx); err != nil {
		d.releaseLock()
		cancel()
		return fmt.Errorf("start syncer: %w", err)
	}
	if err := d.capture.Start(runCtx); err != nil {
		d.syncer.Stop()
		d.releaseLock()
		cancel()
		return fmt.Errorf("start capture: %w", err)
	}
	if d.monitor != nil {
		if err := d.monitor.Start(runCtx); err != nil {
			d.logger.Warn("device monitor unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "reader reattachment relies on periodic retries"))
		}
	}
	d.startMetrics(runCtx)

	d.running.Store(true)
	d.logger.Info("cardwatch daemon started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.cfg.DatabasePath()),
		logging.String(logging.FieldDeviceID, d.cfg.Device.ID))
	return nil
}

// Stop halts the components and releases the instance lock. The capture stops
// first so no new reads arrive while the syncer finishes its current pass.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	metricsDone := d.metricsDone
	d.metricsDone = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	d.capture.Stop()
	if d.monitor != nil {
		d.monitor.Stop()
	}
	d.syncer.Stop()
	if metricsDone != nil {
		<-metricsDone
	}

	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("cardwatch daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	st := Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		DatabasePath: d.cfg.DatabasePath(),
	}
	if summary, err := d.store.Summarize(ctx); err == nil {
		st.Outbox = summary
	}
	return st
}

// logPreflight runs the startup checks and logs failures. The checks are
// advisory here: a detached reader or missing webhook must not keep capture
// from starting.
func (d *Daemon) logPreflight(ctx context.Context) {
	for _, result := range preflight.RunAll(ctx, d.cfg) {
		if result.Passed {
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}
}

func (d *Daemon) startMetrics(ctx context.Context) {
	bind := d.cfg.Metrics.Bind
	if bind == "" || d.recorder == nil {
		return
	}
	done := make(chan struct{})
	d.mu.Lock()
	d.metricsDone = done
	d.mu.Unlock()
	go func() {
		defer close(done)
		if err := metrics.Serve(ctx, bind, d.recorder.Gatherer(), d.logger); err != nil {
			d.logger.Warn("metrics listener stopped", logging.Error(err))
		}
	}()
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release instance lock",
			logging.Error(err),
			logging.String("lock", d.lockPath))
	}
}
