// Package syncer drains the outbox to the configured webhook endpoint.
//
// The Syncer polls the store on a fixed interval, abandoning events that have
// aged out of the delivery window and then attempting everything currently due
// in insertion order. Delivery outcomes are recorded back through the store,
// which schedules retries with exponential backoff, so a pass never loops on a
// failing event. Store errors switch the loop to a slower error interval until
// a pass succeeds again.
//
// RunOnce exposes a single pass for the one-shot CLI drain; Start and Stop
// manage the background loop inside the daemon.
package syncer
