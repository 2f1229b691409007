// Package config loads, normalizes, and validates gamesheet configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TWITCH_CLIENT_ID and SHEETS_ACCESS_TOKEN. The Config type centralizes every
// knob the CLI needs, including the matcher thresholds that govern when a
// catalog candidate is accepted automatically.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
