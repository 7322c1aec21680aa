package outbox

import (
	"database/sql"
	"errors"
	"time"
)

const eventColumns = "id, device_id, card_id, card_value, captured_at, delivery_status, attempt_count, last_attempt_at, next_attempt_at, last_response, created_at"

func scanEvent(scanner interface{ Scan(dest ...any) error }) (*Event, error) {
	var (
		id           int64
		deviceID     string
		cardID       string
		cardValue    sql.NullString
		capturedRaw  sql.NullString
		statusStr    string
		attemptCount int
		lastRaw      sql.NullString
		nextRaw      sql.NullString
		lastResponse sql.NullString
		createdRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&deviceID,
		&cardID,
		&cardValue,
		&capturedRaw,
		&statusStr,
		&attemptCount,
		&lastRaw,
		&nextRaw,
		&lastResponse,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	event := &Event{
		ID:           id,
		DeviceID:     deviceID,
		CardID:       cardID,
		CardValue:    cardValue.String,
		Status:       Status(statusStr),
		AttemptCount: attemptCount,
		LastResponse: lastResponse.String,
	}

	if captured, err := parseTimeString(capturedRaw.String); err == nil {
		event.CapturedAt = captured
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		event.CreatedAt = created
	}
	if lastRaw.Valid {
		if last, err := parseTimeString(lastRaw.String); err == nil {
			event.LastAttemptAt = &last
		}
	}
	if nextRaw.Valid {
		if next, err := parseTimeString(nextRaw.String); err == nil {
			event.NextAttemptAt = &next
		}
	}
	return event, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// formatTime renders timestamps as whole-second RFC 3339 UTC strings. The
// fixed width keeps string comparison in SQL equivalent to chronological
// comparison, which the due/age-window queries rely on.
func formatTime(value time.Time) string {
	return value.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
