package testsupport

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"cardwatch/internal/config"
	"cardwatch/internal/outbox"
)

// MustOpenStore opens an outbox.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *outbox.Store {
	t.Helper()

	store, err := outbox.Open(cfg)
	if err != nil {
		t.Fatalf("outbox.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AppendEvent inserts a card read for tests using the provided store.
func AppendEvent(t testing.TB, store *outbox.Store, deviceID, cardID string) *outbox.Event {
	t.Helper()

	event, err := store.Append(context.Background(), deviceID, cardID, "")
	if err != nil {
		t.Fatalf("store.Append: %v", err)
	}
	return event
}

// BackdateEvent rewrites an event's capture and creation timestamps through a
// separate connection so retention behavior can be exercised without waiting.
func BackdateEvent(t testing.TB, cfg *config.Config, id int64, to time.Time) {
	t.Helper()

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	stamp := to.UTC().Truncate(time.Second).Format(time.RFC3339)
	if _, err := db.Exec(`UPDATE card_reads SET created_at = ?, captured_at = ? WHERE id = ?`, stamp, stamp, id); err != nil {
		t.Fatalf("backdate event %d: %v", id, err)
	}
}
