// Package metrics exposes the daemon's Prometheus instruments and the HTTP
// endpoint that serves them. The endpoint only runs when a bind address is
// configured; the Recorder itself is always safe to call, including as nil.
package metrics
