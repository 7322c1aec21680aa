// Package webhook implements the outbound delivery client for captured card
// reads and a local test receiver that mimics the remote endpoint.
//
// The client treats exactly HTTP 200 as delivered. Every other reply, a
// transport failure, or an unconfigured endpoint yields a failure outcome
// whose detail the outbox persists, so operators can read the last error for
// any stuck event straight from the store.
package webhook
