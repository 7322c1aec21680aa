// Package main hosts the cardwatch CLI entrypoint and command graph.
//
// The Cobra-based command tree opens the outbox database directly for
// inspection and maintenance: delivery statistics, recent and pending events,
// retry and prune operations, CSV export, schema migration, preflight checks,
// and configuration scaffolding. A local webhook receiver rounds out the
// tooling so deliveries can be exercised end to end before a real endpoint
// exists.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
