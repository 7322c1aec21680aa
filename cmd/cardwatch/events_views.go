package main

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cardwatch/internal/outbox"
)

// eventView is the JSON shape shared by the listing commands.
type eventView struct {
	ID            int64  `json:"id"`
	DeviceID      string `json:"device_id"`
	CardID        string `json:"card_id"`
	CardValue     string `json:"card_value,omitempty"`
	CapturedAt    string `json:"captured_at"`
	Status        string `json:"status"`
	AttemptCount  int    `json:"attempt_count"`
	LastAttemptAt string `json:"last_attempt_at,omitempty"`
	NextAttemptAt string `json:"next_attempt_at,omitempty"`
	LastResponse  string `json:"last_response,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type statsView struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	LastHour       int            `json:"last_hour"`
	FailedAttempts int            `json:"failed_attempts"`
}

func buildEventViews(events []*outbox.Event) []eventView {
	views := make([]eventView, 0, len(events))
	for _, event := range events {
		views = append(views, eventView{
			ID:            event.ID,
			DeviceID:      event.DeviceID,
			CardID:        event.CardID,
			CardValue:     event.CardValue,
			CapturedAt:    formatWireTime(event.CapturedAt),
			Status:        string(event.Status),
			AttemptCount:  event.AttemptCount,
			LastAttemptAt: formatOptionalWireTime(event.LastAttemptAt),
			NextAttemptAt: formatOptionalWireTime(event.NextAttemptAt),
			LastResponse:  event.LastResponse,
			CreatedAt:     formatWireTime(event.CreatedAt),
		})
	}
	return views
}

func buildStatsView(summary outbox.Summary) statsView {
	byStatus := make(map[string]int, len(summary.ByStatus))
	for status, count := range summary.ByStatus {
		byStatus[string(status)] = count
	}
	return statsView{
		Total:          summary.Total,
		ByStatus:       byStatus,
		LastHour:       summary.LastHour,
		FailedAttempts: summary.FailedAttempts,
	}
}

func buildStatsRows(summary outbox.Summary) [][]string {
	if summary.Total == 0 {
		return nil
	}
	rows := make([][]string, 0, len(summary.ByStatus))
	for _, status := range outbox.AllStatuses() {
		count := summary.ByStatus[status]
		if count == 0 {
			continue
		}
		share := float64(count) / float64(summary.Total) * 100
		rows = append(rows, []string{
			formatStatusLabel(status),
			fmt.Sprintf("%d", count),
			fmt.Sprintf("%.1f%%", share),
		})
	}
	return rows
}

func buildRecentRows(events []*outbox.Event) [][]string {
	rows := make([][]string, 0, len(events))
	for _, event := range events {
		rows = append(rows, []string{
			fmt.Sprintf("%d", event.ID),
			event.CardID,
			event.CardValue,
			formatStatusLabel(event.Status),
			fmt.Sprintf("%d", event.AttemptCount),
			formatDisplayTime(event.CapturedAt),
		})
	}
	return rows
}

func buildPendingRows(events []*outbox.Event) [][]string {
	rows := make([][]string, 0, len(events))
	for _, event := range events {
		rows = append(rows, []string{
			fmt.Sprintf("%d", event.ID),
			event.CardID,
			fmt.Sprintf("%d", event.AttemptCount),
			formatOptionalDisplayTime(event.LastAttemptAt),
			formatOptionalDisplayTime(event.NextAttemptAt),
			formatResponse(event.LastResponse),
		})
	}
	return rows
}

var exportHeaders = []string{
	"Device ID", "Card ID", "Card Value", "Captured At",
	"Status", "Attempts", "Last Attempt", "Created At",
}

func buildExportRows(events []*outbox.Event) [][]string {
	rows := make([][]string, 0, len(events))
	for _, event := range events {
		rows = append(rows, []string{
			event.DeviceID,
			event.CardID,
			event.CardValue,
			formatWireTime(event.CapturedAt),
			string(event.Status),
			fmt.Sprintf("%d", event.AttemptCount),
			formatOptionalWireTime(event.LastAttemptAt),
			formatWireTime(event.CreatedAt),
		})
	}
	return rows
}

func formatStatusLabel(status outbox.Status) string {
	value := strings.TrimSpace(string(status))
	if value == "" {
		return ""
	}
	return cases.Title(language.Und).String(value)
}

func formatDisplayTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format("2006-01-02 15:04:05")
}

func formatOptionalDisplayTime(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return formatDisplayTime(*value)
}

func formatWireTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func formatOptionalWireTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return formatWireTime(*value)
}

func formatResponse(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	if len(value) > 48 {
		return value[:45] + "..."
	}
	return value
}
