// Package config loads, normalizes, and validates cardwatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CARDWATCH_API_KEY. The Config type centralizes every knob the daemon and CLI
// need, allowing the data directory, webhook credentials, and worker cadence to
// be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
