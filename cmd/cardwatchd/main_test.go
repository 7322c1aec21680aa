package main

import (
	"context"
	"path/filepath"
	"testing"

	"cardwatch/internal/logging"
	"cardwatch/internal/testsupport"
)

func TestNewRecorder(t *testing.T) {
	if newRecorder(nil) != nil {
		t.Fatal("expected nil recorder for nil config")
	}

	cfg := testsupport.NewConfig(t)
	if rec := newRecorder(cfg); rec != nil {
		t.Fatal("expected nil recorder when no metrics listener is configured")
	}

	cfg.Metrics.Bind = "127.0.0.1:9105"
	if rec := newRecorder(cfg); rec == nil {
		t.Fatal("expected recorder when metrics listener is configured")
	}
}

func TestBuildDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithReaderPath(filepath.Join(t.TempDir(), "reader")))
	store := testsupport.MustOpenStore(t, cfg)

	d, err := buildDaemon(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("buildDaemon: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	status := d.Status(context.Background())
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("database path = %q, want %q", status.DatabasePath, cfg.DatabasePath())
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("lock path = %q, want %q", status.LockFilePath, cfg.LockPath())
	}
}
