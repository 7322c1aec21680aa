package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"cardwatch/internal/services"
)

// legacyMigrationSQL rewrites the pre-card_id layout into the current one. The
// legacy payload column becomes the card identifier and card_value starts
// empty; ids, device ids, statuses, and attempt counters carry over verbatim.
// Timestamps are rewritten to whole-second RFC 3339 UTC so they sort as
// strings alongside rows the current schema writes; the instants themselves
// are unchanged.
var legacyMigrationSQL = []string{
	`CREATE TABLE card_reads_new (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        device_id TEXT NOT NULL,
        card_id TEXT NOT NULL,
        card_value TEXT NOT NULL DEFAULT '',
        captured_at TEXT NOT NULL,
        delivery_status TEXT NOT NULL DEFAULT 'pending',
        attempt_count INTEGER NOT NULL DEFAULT 0,
        last_attempt_at TEXT,
        next_attempt_at TEXT,
        last_response TEXT,
        created_at TEXT NOT NULL
    )`,
	`INSERT INTO card_reads_new (
        id, device_id, card_id, card_value, captured_at,
        delivery_status, attempt_count, last_attempt_at, next_attempt_at,
        last_response, created_at
    )
    SELECT
        id, device_id, card_value, '',
        strftime('%Y-%m-%dT%H:%M:%SZ', timestamp),
        CASE sync_status WHEN 'success' THEN 'delivered' ELSE 'pending' END,
        COALESCE(sync_attempts, 0),
        CASE WHEN last_sync_attempt IS NULL THEN NULL
             ELSE strftime('%Y-%m-%dT%H:%M:%SZ', last_sync_attempt) END,
        CASE WHEN next_retry IS NULL THEN NULL
             ELSE strftime('%Y-%m-%dT%H:%M:%SZ', next_retry) END,
        webhook_response,
        strftime('%Y-%m-%dT%H:%M:%SZ', created_at)
    FROM card_reads`,
	`DROP TABLE card_reads`,
	`ALTER TABLE card_reads_new RENAME TO card_reads`,
	`CREATE INDEX IF NOT EXISTS idx_card_reads_status ON card_reads(delivery_status)`,
	`CREATE INDEX IF NOT EXISTS idx_card_reads_next_attempt ON card_reads(next_attempt_at)`,
}

func migrateLegacy(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrStoreUnavailable, "outbox", "migrate", "begin migration tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, statement := range legacyMigrationSQL {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return services.Wrap(services.ErrStoreUnavailable, "outbox", "migrate", "apply legacy migration", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrStoreUnavailable, "outbox", "migrate", "commit legacy migration", err)
	}
	return nil
}

// ProbeSchema reports the on-disk layout of the database at dbPath without
// modifying it. A missing file reports LayoutMissing.
func ProbeSchema(ctx context.Context, dbPath string) (SchemaLayout, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LayoutMissing, nil
		}
		return LayoutUnknown, fmt.Errorf("stat database: %w", err)
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return LayoutUnknown, services.Wrap(services.ErrStoreUnavailable, "outbox", "probe", dbPath, err)
	}
	defer db.Close()

	layout, _, err := probeLayout(ctx, db)
	if err != nil {
		return LayoutUnknown, services.Wrap(services.ErrStoreUnavailable, "outbox", "probe", "read table info", err)
	}
	return layout, nil
}

// MigrateSchema brings the database at dbPath to the current layout and
// returns the layout found beforehand: missing databases get the schema
// created, legacy databases are rewritten, current databases are untouched,
// and unrecognized layouts fail rather than being guessed at. Running it twice
// is a no-op the second time.
func MigrateSchema(ctx context.Context, dbPath string) (SchemaLayout, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return LayoutUnknown, services.Wrap(services.ErrStoreUnavailable, "outbox", "migrate", dbPath, err)
	}
	defer db.Close()

	store := &Store{db: db, path: dbPath}
	layout, _, err := probeLayout(ctx, db)
	if err != nil {
		return LayoutUnknown, services.Wrap(services.ErrStoreUnavailable, "outbox", "migrate", "probe layout", err)
	}
	if err := store.ensureSchema(ctx); err != nil {
		return layout, err
	}
	return layout, nil
}
