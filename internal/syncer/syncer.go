package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cardwatch/internal/config"
	"cardwatch/internal/logging"
	"cardwatch/internal/metrics"
	"cardwatch/internal/outbox"
	"cardwatch/internal/services"
	"cardwatch/internal/webhook"
)

// Syncer drains pending outbox events to the configured webhook. Exactly one
// Syncer owns the delivery schedule for a store; running two against the same
// database would double-send events.
type Syncer struct {
	store         *outbox.Store
	client        *webhook.Client
	logger        *slog.Logger
	recorder      *metrics.Recorder
	interval      time.Duration
	errorInterval time.Duration
	maxEventAge   time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// PassStats summarizes a single drain pass over the outbox.
type PassStats struct {
	Abandoned int64
	Attempted int
	Delivered int
	Failed    int
}

// New constructs a Syncer bound to the supplied store and delivery client.
func New(cfg *config.Config, store *outbox.Store, client *webhook.Client, logger *slog.Logger, recorder *metrics.Recorder) *Syncer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Syncer{
		store:         store,
		client:        client,
		logger:        logging.NewComponentLogger(logger, "syncer"),
		recorder:      recorder,
		interval:      time.Duration(cfg.Sync.IntervalSeconds) * time.Second,
		errorInterval: time.Duration(cfg.Sync.ErrorIntervalSeconds) * time.Second,
		maxEventAge:   time.Duration(cfg.Storage.MaxEventAgeDays) * 24 * time.Hour,
	}
}

// Start begins background draining.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("syncer already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(runCtx)
	return nil
}

// Stop terminates background draining and waits for the current pass to finish.
func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

func (s *Syncer) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		wait := s.interval
		if _, err := s.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error("sync pass failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "sync_pass_failed"),
				logging.String(logging.FieldErrorHint, "check outbox database access"),
			)
			wait = s.errorInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// RunOnce performs a single drain pass: abandon events older than the delivery
// window, then attempt every due event oldest first. Each due event is tried at
// most once per pass; failures reschedule themselves through the store backoff.
func (s *Syncer) RunOnce(ctx context.Context) (PassStats, error) {
	start := time.Now()
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, s.logger)

	var stats PassStats

	now := time.Now().UTC()
	abandoned, err := s.store.AbandonOlderThan(ctx, now, s.maxEventAge)
	if err != nil {
		return stats, fmt.Errorf("abandon stale events: %w", err)
	}
	stats.Abandoned = abandoned
	if abandoned > 0 {
		s.recorder.EventsAbandoned(abandoned)
		logger.Warn("abandoned undeliverable events",
			logging.Int64("count", abandoned),
			logging.String(logging.FieldEventType, "events_abandoned"),
			logging.String(logging.FieldImpact, "events past the delivery window will not be retried automatically"),
			logging.String(logging.FieldErrorHint, "run 'cardwatch retry --abandoned' to reinstate them"),
		)
	}

	due, err := s.store.FetchDue(ctx, now, s.maxEventAge)
	if err != nil {
		return stats, fmt.Errorf("fetch due events: %w", err)
	}

	for _, event := range due {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		stats.Attempted++
		outcome := s.client.Send(ctx, event)
		updated, err := s.store.RecordOutcome(ctx, event.ID, outcome)
		if err != nil {
			return stats, fmt.Errorf("record outcome for event %d: %w", event.ID, err)
		}

		eventLogger := logging.WithContext(services.WithEventID(ctx, event.ID), s.logger)
		if outcome.Success {
			stats.Delivered++
			s.recorder.EventDelivered()
			eventLogger.Info("event delivered",
				logging.String(logging.FieldCardID, event.CardID),
				logging.Int("attempts", attemptCount(updated)),
				logging.String(logging.FieldEventType, "event_delivered"),
			)
		} else {
			stats.Failed++
			s.recorder.DeliveryFailed()
			eventLogger.Warn("event delivery failed",
				logging.String(logging.FieldCardID, event.CardID),
				logging.String("detail", outcome.Detail),
				logging.Int("attempts", attemptCount(updated)),
				logging.String(logging.FieldEventType, "delivery_failed"),
				logging.String(logging.FieldErrorHint, "check webhook URL, credentials, and network"),
			)
		}
	}

	if counts, err := s.store.Stats(ctx); err == nil {
		s.recorder.SetBacklog(counts[outbox.StatusPending])
	}
	s.recorder.ObserveDrainPass(time.Since(start))

	if stats.Attempted > 0 || stats.Abandoned > 0 {
		logger.Info("sync pass completed",
			logging.Int("attempted", stats.Attempted),
			logging.Int("delivered", stats.Delivered),
			logging.Int("failed", stats.Failed),
			logging.Int64("abandoned", stats.Abandoned),
			logging.Duration("pass_duration", time.Since(start)),
			logging.String(logging.FieldEventType, "sync_pass_complete"),
		)
	}

	return stats, nil
}

func attemptCount(event *outbox.Event) int {
	if event == nil {
		return 0
	}
	return event.AttemptCount
}
