package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"cardwatch/internal/outbox"
	"cardwatch/internal/testsupport"
)

func TestStatsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	testsupport.AppendEvent(t, env.store, "test-device", "CARD-A")
	delivered := testsupport.AppendEvent(t, env.store, "test-device", "CARD-B")
	if _, err := env.store.RecordOutcome(ctx, delivered.ID, outbox.Outcome{Success: true, Detail: "ok"}); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}

	out, _, err := runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "Total events: 2")
	requireContains(t, out, "Captured last hour: 2")
	requireContains(t, out, "Pending")
	requireContains(t, out, "Delivered")
	requireContains(t, out, "50.0%")
}

func TestStatsCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats empty: %v", err)
	}
	requireContains(t, out, "Outbox is empty")
}

func TestStatsJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	testsupport.AppendEvent(t, env.store, "test-device", "CARD-A")
	delivered := testsupport.AppendEvent(t, env.store, "test-device", "CARD-B")
	if _, err := env.store.RecordOutcome(ctx, delivered.ID, outbox.Outcome{Success: true}); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}

	out, _, err := runCLI(t, []string{"stats", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("stats --json: %v", err)
	}

	var stats map[string]any
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if stats["total"] != float64(2) {
		t.Fatalf("expected total=2, got %v", stats["total"])
	}
	byStatus, ok := stats["by_status"].(map[string]any)
	if !ok {
		t.Fatalf("expected by_status object, got %v", stats["by_status"])
	}
	if byStatus["pending"] != float64(1) {
		t.Fatalf("expected 1 pending, got %v", byStatus["pending"])
	}
	if byStatus["delivered"] != float64(1) {
		t.Fatalf("expected 1 delivered, got %v", byStatus["delivered"])
	}
}

func TestRecentCommandLimitsOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.AppendEvent(t, env.store, "test-device", "CARD-A")
	testsupport.AppendEvent(t, env.store, "test-device", "CARD-B")
	testsupport.AppendEvent(t, env.store, "test-device", "CARD-C")

	out, _, err := runCLI(t, []string{"recent"}, env.configPath)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	requireContains(t, out, "CARD-A")
	requireContains(t, out, "CARD-B")
	requireContains(t, out, "CARD-C")

	out, _, err = runCLI(t, []string{"recent", "--limit", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("recent --limit: %v", err)
	}
	requireContains(t, out, "CARD-C")
	requireContains(t, out, "CARD-B")
	if strings.Contains(out, "CARD-A") {
		t.Fatalf("expected oldest event to be cut off, got %q", out)
	}
}

func TestRecentRejectsNonPositiveLimit(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"recent", "--limit", "0"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for zero limit")
	}
	requireContains(t, err.Error(), "limit must be positive")
}

func TestRecentCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"recent"}, env.configPath)
	if err != nil {
		t.Fatalf("recent empty: %v", err)
	}
	requireContains(t, out, "No events captured yet")
}

func TestRecentJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.AppendEvent(t, env.store, "test-device", "CARD-A")
	testsupport.AppendEvent(t, env.store, "test-device", "CARD-B")

	out, _, err := runCLI(t, []string{"recent", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("recent --json: %v", err)
	}

	var events []map[string]any
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, event := range events {
		if _, ok := event["id"]; !ok {
			t.Fatal("missing 'id' key in JSON event")
		}
		if _, ok := event["card_id"]; !ok {
			t.Fatal("missing 'card_id' key in JSON event")
		}
		if event["status"] != "pending" {
			t.Fatalf("expected pending status, got %v", event["status"])
		}
	}
}

func TestRecentJSONEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"recent", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("recent --json empty: %v", err)
	}

	var events []any
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty array, got %d events", len(events))
	}
}

func TestPendingCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	stuck := testsupport.AppendEvent(t, env.store, "test-device", "CARD-A")
	delivered := testsupport.AppendEvent(t, env.store, "test-device", "CARD-B")

	if _, err := env.store.RecordOutcome(ctx, stuck.ID, outbox.Outcome{Detail: "HTTP 500: backend down"}); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if _, err := env.store.RecordOutcome(ctx, delivered.ID, outbox.Outcome{Success: true}); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}

	out, _, err := runCLI(t, []string{"pending"}, env.configPath)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	requireContains(t, out, "CARD-A")
	requireContains(t, out, "HTTP 500: backend down")
	if strings.Contains(out, "CARD-B") {
		t.Fatalf("delivered event should not be listed, got %q", out)
	}
}

func TestPendingCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"pending"}, env.configPath)
	if err != nil {
		t.Fatalf("pending empty: %v", err)
	}
	requireContains(t, out, "No pending events; the outbox is drained")
}

func TestPendingJSONIncludesRetryState(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	event := testsupport.AppendEvent(t, env.store, "test-device", "CARD-A")
	if _, err := env.store.RecordOutcome(ctx, event.ID, outbox.Outcome{Detail: "HTTP 503: overloaded"}); err != nil {
		t.Fatalf("record failure: %v", err)
	}

	out, _, err := runCLI(t, []string{"pending", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("pending --json: %v", err)
	}

	var events []map[string]any
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, out)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0]["attempt_count"] != float64(1) {
		t.Fatalf("expected attempt_count=1, got %v", events[0]["attempt_count"])
	}
	if events[0]["last_response"] != "HTTP 503: overloaded" {
		t.Fatalf("unexpected last_response %v", events[0]["last_response"])
	}
	if _, ok := events[0]["next_attempt_at"]; !ok {
		t.Fatal("missing 'next_attempt_at' key after a failed attempt")
	}
}
