package reader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"cardwatch/internal/logging"
	"cardwatch/internal/metrics"
	"cardwatch/internal/outbox"
)

const unavailableRetryDelay = 5 * time.Second

// Capture pulls card reads from a Source and appends each one to the outbox.
// Repeated reads of the same card are collapsed into one event: only a read
// whose card id differs from the immediately preceding one is recorded.
type Capture struct {
	source   Source
	store    *outbox.Store
	logger   *slog.Logger
	recorder *metrics.Recorder
	deviceID string

	wake chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCapture constructs a capture loop for the supplied source and store.
func NewCapture(deviceID string, source Source, store *outbox.Store, logger *slog.Logger, recorder *metrics.Recorder) *Capture {
	return &Capture{
		source:   source,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "capture"),
		recorder: recorder,
		deviceID: deviceID,
		wake:     make(chan struct{}, 1),
	}
}

// Wake interrupts the unavailability backoff so a reattached reader is
// reopened immediately.
func (c *Capture) Wake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Start begins reading cards in the background.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("capture already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.run(runCtx)
	return nil
}

// Stop terminates the capture loop and waits for it to exit. The source is
// closed to unblock a pending device read, so a stopped Capture cannot be
// restarted.
func (c *Capture) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.running = false
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	_ = c.source.Close()
	c.wg.Wait()
}

func (c *Capture) run(ctx context.Context) {
	defer c.wg.Done()

	available := true
	lastCardID := ""
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		card, err := c.source.ReadCard(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, ErrUnavailable) {
				if available {
					c.logger.Warn("card reader unavailable",
						logging.Error(err),
						logging.String(logging.FieldEventType, "reader_unavailable"),
						logging.String(logging.FieldErrorHint, "check that the reader is attached and readable"),
						logging.String(logging.FieldImpact, "card reads are not being captured"),
					)
					available = false
				}
				c.waitForReader(ctx)
				continue
			}
			c.logger.Error("card read failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "card_read_failed"),
			)
			continue
		}

		if !available {
			c.logger.Info("card reader restored",
				logging.String(logging.FieldEventType, "reader_restored"),
			)
			available = true
		}

		if card.ID == lastCardID {
			continue
		}
		lastCardID = card.ID

		event, err := c.store.Append(ctx, c.deviceID, card.ID, card.Value)
		if err != nil {
			c.logger.Error("failed to store card read",
				logging.Error(err),
				logging.String(logging.FieldCardID, card.ID),
				logging.String(logging.FieldEventType, "append_failed"),
				logging.String(logging.FieldErrorHint, "check outbox database access"),
				logging.String(logging.FieldImpact, "this card read was lost"),
			)
			continue
		}
		c.recorder.EventCaptured()
		c.logger.Info("card read captured",
			logging.Int64(logging.FieldEventID, event.ID),
			logging.String(logging.FieldDeviceID, c.deviceID),
			logging.String(logging.FieldCardID, card.ID),
			logging.String(logging.FieldEventType, "card_captured"),
		)
	}
}

func (c *Capture) waitForReader(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-c.wake:
	case <-time.After(unavailableRetryDelay):
	}
}
