// Package outbox persists card-read events in SQLite and exposes helpers for
// driving their delivery lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, and the pending/delivered/abandoned transitions the sync worker
// relies on. Events carry their delivery bookkeeping (attempt counts, the
// backoff-derived next attempt time, the last webhook response) so the worker
// stays stateless across restarts.
//
// The database is the durable record between capture and acknowledgement:
// an event inserted here survives crashes and network outages until a webhook
// delivery returns success or an operator prunes it. Timestamps are stored as
// whole-second RFC 3339 UTC strings so SQL string comparison matches
// chronological order.
//
// Treat this package as the single source of truth for delivery semantics;
// when you add statuses or columns, update schema.sql and the legacy
// migration together.
package outbox
