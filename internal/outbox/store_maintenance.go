package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Stats returns a count of events grouped by delivery status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT delivery_status, COUNT(1) FROM card_reads GROUP BY delivery_status`)
	if err != nil {
		return nil, fmt.Errorf("outbox stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Summarize aggregates outbox state for diagnostic output.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{ByStatus: stats}
	for _, count := range stats {
		summary.Total += count
	}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM card_reads WHERE created_at >= ?`,
		formatTime(time.Now().UTC().Add(-time.Hour)),
	)
	if err := row.Scan(&summary.LastHour); err != nil {
		return Summary{}, fmt.Errorf("count last hour: %w", err)
	}

	row = s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM card_reads WHERE delivery_status = ? AND attempt_count > 0`,
		StatusPending,
	)
	if err := row.Scan(&summary.FailedAttempts); err != nil {
		return Summary{}, fmt.Errorf("count failed attempts: %w", err)
	}

	return summary, nil
}

// CheckHealth returns diagnostic information about the outbox database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{
		DBPath: s.path,
		Layout: LayoutMissing,
	}

	if s.path == "" {
		return health, errors.New("outbox database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat outbox database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("outbox database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("outbox database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping outbox database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'card_reads'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TableExists = false
		} else {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		columns, err := tableColumns(connCtx, s.db, "card_reads")
		if err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("table info: %w", err)
		}
		health.ColumnsPresent = append(health.ColumnsPresent, columns...)
		health.Layout = classifyColumns(columns)

		expected := []string{
			"id",
			"device_id",
			"card_id",
			"card_value",
			"captured_at",
			"delivery_status",
			"attempt_count",
			"last_attempt_at",
			"next_attempt_at",
			"last_response",
			"created_at",
		}
		missingMap := make(map[string]struct{}, len(expected))
		for _, col := range expected {
			missingMap[col] = struct{}{}
		}
		for _, col := range columns {
			delete(missingMap, col)
		}
		for col := range missingMap {
			health.MissingColumns = append(health.MissingColumns, col)
		}

		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM card_reads")
		if err := row.Scan(&health.TotalEvents); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count card reads: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
