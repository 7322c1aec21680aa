package main

import (
	"log/slog"
	"strings"

	"cardwatch/internal/config"
	"cardwatch/internal/daemon"
	"cardwatch/internal/metrics"
	"cardwatch/internal/outbox"
	"cardwatch/internal/reader"
	"cardwatch/internal/syncer"
	"cardwatch/internal/webhook"
)

// newRecorder returns a metrics recorder only when a listener is configured.
// Components accept a nil recorder, so unconfigured installs skip collection
// entirely.
func newRecorder(cfg *config.Config) *metrics.Recorder {
	if cfg == nil || strings.TrimSpace(cfg.Metrics.Bind) == "" {
		return nil
	}
	return metrics.NewRecorder()
}

// buildDaemon wires the capture, delivery, and monitoring components around
// the store. A reader reattachment wakes the capture loop immediately instead
// of waiting out its retry delay.
func buildDaemon(cfg *config.Config, store *outbox.Store, logger *slog.Logger) (*daemon.Daemon, error) {
	recorder := newRecorder(cfg)
	client := webhook.NewClient(cfg)
	sync := syncer.New(cfg, store, client, logger, recorder)
	source := reader.NewLineSource(cfg.Device.Reader)
	capture := reader.NewCapture(cfg.Device.ID, source, store, logger, recorder)
	monitor := reader.NewMonitor(cfg.Device.Reader, logger, capture.Wake)
	return daemon.New(cfg, store, logger, sync, capture, monitor, recorder)
}
