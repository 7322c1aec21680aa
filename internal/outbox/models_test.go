package outbox_test

import (
	"testing"
	"time"

	"cardwatch/internal/outbox"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  outbox.Status
		ok    bool
	}{
		{"pending", outbox.StatusPending, true},
		{"  Delivered ", outbox.StatusDelivered, true},
		{"ABANDONED", outbox.StatusAbandoned, true},
		{"", "", false},
		{"synced", "", false},
	}
	for _, tc := range cases {
		got, ok := outbox.ParseStatus(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParseStatus(%q) ok = %v, want %v", tc.input, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseStatus(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if outbox.StatusPending.Terminal() {
		t.Fatal("pending should not be terminal")
	}
	if !outbox.StatusDelivered.Terminal() {
		t.Fatal("delivered should be terminal")
	}
	if !outbox.StatusAbandoned.Terminal() {
		t.Fatal("abandoned should be terminal")
	}
}

func TestEventDue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	event := outbox.Event{Status: outbox.StatusPending}
	if !event.Due(now) {
		t.Fatal("pending event without next attempt should be due")
	}
	event.NextAttemptAt = &past
	if !event.Due(now) {
		t.Fatal("pending event past its next attempt should be due")
	}
	event.NextAttemptAt = &future
	if event.Due(now) {
		t.Fatal("pending event before its next attempt should not be due")
	}
	event.NextAttemptAt = nil
	event.Status = outbox.StatusDelivered
	if event.Due(now) {
		t.Fatal("delivered event should never be due")
	}
}
