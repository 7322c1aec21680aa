package daemon_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"cardwatch/internal/config"
	"cardwatch/internal/daemon"
	"cardwatch/internal/logging"
	"cardwatch/internal/reader"
	"cardwatch/internal/syncer"
	"cardwatch/internal/testsupport"
	"cardwatch/internal/webhook"
)

func newTestDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()

	store := testsupport.MustOpenStore(t, cfg)
	client := webhook.NewClient(cfg)
	logger := logging.NewNop()
	sync := syncer.New(cfg, store, client, logger, nil)
	source := reader.NewLineSource(cfg.Device.Reader)
	capture := reader.NewCapture(cfg.Device.ID, source, store, logger, nil)

	d, err := daemon.New(cfg, store, logger, sync, capture, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithReaderPath(filepath.Join(t.TempDir(), "reader")))
	d := newTestDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("lock path = %q, want %q", status.LockFilePath, cfg.LockPath())
	}
	if status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("database path = %q, want %q", status.DatabasePath, cfg.DatabasePath())
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonRefusesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithReaderPath(filepath.Join(t.TempDir(), "reader")))
	first := newTestDaemon(t, cfg)
	second := newTestDaemon(t, cfg)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}

	err := second.Start(ctx)
	if err == nil {
		t.Fatal("expected second instance to be refused")
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("unexpected refusal error: %v", err)
	}

	first.Stop()

	// The lock is released on Stop, so a new instance may take over.
	if err := second.Start(ctx); err != nil {
		t.Fatalf("Start after lock release failed: %v", err)
	}
	second.Stop()
}

func TestDaemonStatusReportsOutbox(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithReaderPath(filepath.Join(t.TempDir(), "reader")))
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.AppendEvent(t, store, cfg.Device.ID, "CARD-1")
	testsupport.AppendEvent(t, store, cfg.Device.ID, "CARD-2")

	client := webhook.NewClient(cfg)
	logger := logging.NewNop()
	sync := syncer.New(cfg, store, client, logger, nil)
	source := reader.NewLineSource(cfg.Device.Reader)
	capture := reader.NewCapture(cfg.Device.ID, source, store, logger, nil)

	d, err := daemon.New(cfg, store, logger, sync, capture, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	status := d.Status(context.Background())
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if status.Outbox.Total != 2 {
		t.Fatalf("Outbox.Total = %d, want 2", status.Outbox.Total)
	}
}

func TestDaemonNewRequiresDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	client := webhook.NewClient(cfg)
	logger := logging.NewNop()
	sync := syncer.New(cfg, store, client, logger, nil)
	source := reader.NewLineSource(cfg.Device.Reader)
	capture := reader.NewCapture(cfg.Device.ID, source, store, logger, nil)

	if _, err := daemon.New(nil, store, logger, sync, capture, nil, nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := daemon.New(cfg, nil, logger, sync, capture, nil, nil); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := daemon.New(cfg, store, logger, nil, capture, nil, nil); err == nil {
		t.Fatal("expected error for nil syncer")
	}
	if _, err := daemon.New(cfg, store, logger, sync, nil, nil, nil); err == nil {
		t.Fatal("expected error for nil capture")
	}
	if _, err := daemon.New(cfg, store, nil, sync, capture, nil, nil); err != nil {
		t.Fatalf("nil logger should be tolerated: %v", err)
	}
}
