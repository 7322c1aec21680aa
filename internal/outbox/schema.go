package outbox

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"cardwatch/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// SchemaLayout classifies the on-disk shape of the card_reads table.
type SchemaLayout int

const (
	// LayoutMissing means the table (or the database file) does not exist yet.
	LayoutMissing SchemaLayout = iota
	// LayoutCurrent means the table already matches the current schema.
	LayoutCurrent
	// LayoutLegacy means the table predates the card_id column: the payload
	// field holds what is now the card identifier.
	LayoutLegacy
	// LayoutUnknown means the table matches neither known layout. Migration
	// refuses to touch it.
	LayoutUnknown
)

func (l SchemaLayout) String() string {
	switch l {
	case LayoutMissing:
		return "missing"
	case LayoutCurrent:
		return "current"
	case LayoutLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func classifyColumns(columns []string) SchemaLayout {
	if len(columns) == 0 {
		return LayoutMissing
	}
	set := make(map[string]struct{}, len(columns))
	for _, column := range columns {
		set[column] = struct{}{}
	}
	has := func(name string) bool {
		_, ok := set[name]
		return ok
	}
	switch {
	case has("card_id") && has("delivery_status"):
		return LayoutCurrent
	case !has("card_id") && has("card_value") && has("sync_status"):
		return LayoutLegacy
	default:
		return LayoutUnknown
	}
}

func probeLayout(ctx context.Context, db *sql.DB) (SchemaLayout, []string, error) {
	columns, err := tableColumns(ctx, db, "card_reads")
	if err != nil {
		return LayoutUnknown, nil, err
	}
	return classifyColumns(columns), columns, nil
}

// ensureSchema brings the database to the current layout: fresh databases get
// the schema created, legacy databases get migrated, and unrecognized layouts
// abort so normal traffic never runs against a table we cannot interpret.
func (s *Store) ensureSchema(ctx context.Context) error {
	layout, columns, err := probeLayout(ctx, s.db)
	if err != nil {
		return services.Wrap(services.ErrStoreUnavailable, "outbox", "schema", "probe layout", err)
	}

	switch layout {
	case LayoutLegacy:
		if err := migrateLegacy(ctx, s.db); err != nil {
			return err
		}
	case LayoutUnknown:
		return services.Wrap(services.ErrSchemaUnknown, "outbox", "schema",
			fmt.Sprintf("unrecognized card_reads layout (columns: %s)", strings.Join(columns, ", ")), nil)
	}

	if err := s.createSchema(ctx); err != nil {
		return services.Wrap(services.ErrStoreUnavailable, "outbox", "schema", "create schema", err)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
