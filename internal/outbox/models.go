package outbox

import (
	"strings"
	"time"
)

// Status represents the delivery lifecycle of a captured event.
type Status string

const (
	// StatusPending marks events waiting for a successful delivery.
	StatusPending Status = "pending"
	// StatusDelivered marks events acknowledged by the endpoint. Terminal.
	StatusDelivered Status = "delivered"
	// StatusAbandoned marks pending events that aged out of the delivery
	// window without ever being delivered. Terminal unless an operator
	// reinstates them.
	StatusAbandoned Status = "abandoned"
)

var allStatuses = []Status{
	StatusPending,
	StatusDelivered,
	StatusAbandoned,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether the status ends the delivery lifecycle.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusAbandoned
}

// Event represents one captured card presentation persisted in SQLite.
//
// CapturedAt records when the card was presented and never changes.
// CreatedAt drives the delivery age window; it matches CapturedAt at insert
// and is rewound only when an operator reinstates an abandoned event.
type Event struct {
	ID            int64
	DeviceID      string
	CardID        string
	CardValue     string
	CapturedAt    time.Time
	Status        Status
	AttemptCount  int
	LastAttemptAt *time.Time
	NextAttemptAt *time.Time
	LastResponse  string
	CreatedAt     time.Time
}

// Due reports whether the event is eligible for a delivery attempt at now.
func (e Event) Due(now time.Time) bool {
	if e.Status != StatusPending {
		return false
	}
	return e.NextAttemptAt == nil || !e.NextAttemptAt.After(now)
}

// Outcome captures the result of one delivery attempt.
type Outcome struct {
	Success bool
	Detail  string
}

// Summary aggregates outbox state for the stats surface.
type Summary struct {
	Total          int
	ByStatus       map[Status]int
	LastHour       int
	FailedAttempts int
}

// DatabaseHealth captures diagnostic information about the outbox database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	Layout           SchemaLayout
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalEvents      int
	Error            string
}
