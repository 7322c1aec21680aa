// Package services defines shared utilities consumed by the capture pipeline
// and delivery integrations.
//
// Key responsibilities:
//   - Context helpers that stamp outbox event IDs and correlation identifiers
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     consistently (store availability, schema state, missing configuration).
//
// Use these helpers when wiring new components so operational behaviour (error
// handling, observability, retries) stays uniform across the system.
package services
