package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cardwatch/internal/services"
)

const defaultRecentLimit = 20

// Append records a new card presentation and returns the stored event. The
// event starts pending with next_attempt_at set to now, so it is immediately
// eligible for delivery.
func (s *Store) Append(ctx context.Context, deviceID, cardID, cardValue string) (*Event, error) {
	now := time.Now().UTC()
	timestamp := formatTime(now)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO card_reads (
            device_id, card_id, card_value, captured_at,
            delivery_status, attempt_count, next_attempt_at, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		deviceID,
		cardID,
		cardValue,
		timestamp,
		StatusPending,
		0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "outbox", "append", "insert card read", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "outbox", "append", "last insert id", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches an event by identifier. A missing id returns nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM card_reads WHERE id = ?`, id)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// FetchDue returns pending events eligible for a delivery attempt at now, in
// insertion order. Events created before now minus maxAge are excluded; the
// abandon sweep owns those.
func (s *Store) FetchDue(ctx context.Context, now time.Time, maxAge time.Duration) ([]*Event, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+eventColumns+` FROM card_reads
         WHERE delivery_status = ?
           AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
           AND created_at >= ?
         ORDER BY id`,
		StatusPending,
		formatTime(now),
		formatTime(now.Add(-maxAge)),
	)
	if err != nil {
		return nil, fmt.Errorf("query due events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// RecordOutcome applies the result of one delivery attempt. Success marks the
// event delivered; failure increments the attempt count and pushes
// next_attempt_at forward by Backoff of the new count. Events already in a
// terminal status are left untouched. The updated event is returned.
func (s *Store) RecordOutcome(ctx context.Context, id int64, outcome Outcome) (*Event, error) {
	now := time.Now().UTC()

	if outcome.Success {
		if err := s.execWithoutResultRetry(
			ctx,
			`UPDATE card_reads
             SET delivery_status = ?, last_attempt_at = ?, next_attempt_at = NULL, last_response = ?
             WHERE id = ? AND delivery_status = ?`,
			StatusDelivered,
			formatTime(now),
			nullableString(outcome.Detail),
			id,
			StatusPending,
		); err != nil {
			return nil, services.Wrap(services.ErrStoreUnavailable, "outbox", "record outcome", "mark delivered", err)
		}
		return s.GetByID(ctx, id)
	}

	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "outbox", "record outcome", "begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	var attempts int
	row := tx.QueryRowContext(ctx, `SELECT attempt_count FROM card_reads WHERE id = ? AND delivery_status = ?`, id, StatusPending)
	if err := row.Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.GetByID(ctx, id)
		}
		return nil, services.Wrap(services.ErrStoreUnavailable, "outbox", "record outcome", "read attempt count", err)
	}

	attempts++
	next := now.Add(Backoff(attempts))
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE card_reads
         SET attempt_count = ?, last_attempt_at = ?, next_attempt_at = ?, last_response = ?
         WHERE id = ?`,
		attempts,
		formatTime(now),
		formatTime(next),
		nullableString(outcome.Detail),
		id,
	); err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "outbox", "record outcome", "reschedule event", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, services.Wrap(services.ErrStoreUnavailable, "outbox", "record outcome", "commit", err)
	}

	return s.GetByID(ctx, id)
}

// AbandonOlderThan moves pending events created before now minus maxAge into
// the abandoned status and reports how many were moved.
func (s *Store) AbandonOlderThan(ctx context.Context, now time.Time, maxAge time.Duration) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE card_reads SET delivery_status = ? WHERE delivery_status = ? AND created_at < ?`,
		StatusAbandoned,
		StatusPending,
		formatTime(now.Add(-maxAge)),
	)
	if err != nil {
		return 0, services.Wrap(services.ErrStoreUnavailable, "outbox", "abandon", "age out pending events", err)
	}
	return res.RowsAffected()
}

// RetryDueNow makes every pending event immediately eligible for delivery by
// resetting its next attempt time to now.
func (s *Store) RetryDueNow(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE card_reads SET next_attempt_at = ? WHERE delivery_status = ?`,
		formatTime(time.Now().UTC()),
		StatusPending,
	)
	if err != nil {
		return 0, services.Wrap(services.ErrStoreUnavailable, "outbox", "retry", "reset next attempt", err)
	}
	return res.RowsAffected()
}

// Reinstate returns abandoned events to pending. The delivery window runs off
// created_at, so that clock is rewound to now; CapturedAt keeps the original
// presentation time. Attempt history is preserved.
func (s *Store) Reinstate(ctx context.Context) (int64, error) {
	timestamp := formatTime(time.Now().UTC())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE card_reads SET delivery_status = ?, next_attempt_at = ?, created_at = ? WHERE delivery_status = ?`,
		StatusPending,
		timestamp,
		timestamp,
		StatusAbandoned,
	)
	if err != nil {
		return 0, services.Wrap(services.ErrStoreUnavailable, "outbox", "reinstate", "restore abandoned events", err)
	}
	return res.RowsAffected()
}

// PruneDelivered deletes delivered events created before the given time and
// reports how many rows were removed.
func (s *Store) PruneDelivered(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM card_reads WHERE delivery_status = ? AND created_at < ?`,
		StatusDelivered,
		formatTime(olderThan),
	)
	if err != nil {
		return 0, services.Wrap(services.ErrStoreUnavailable, "outbox", "prune", "delete delivered events", err)
	}
	return res.RowsAffected()
}

// Recent returns the most recently captured events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+eventColumns+` FROM card_reads ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Pending returns all pending events in insertion order.
func (s *Store) Pending(ctx context.Context) ([]*Event, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+eventColumns+` FROM card_reads WHERE delivery_status = ? ORDER BY id`,
		StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Export returns every event, newest first, for tabular export.
func (s *Store) Export(ctx context.Context) ([]*Event, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+eventColumns+` FROM card_reads ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query events for export: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
