// Package config loads, normalizes, and validates tagtrack configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TAGTRACK_API_BIND. A .env file in the working directory is loaded before the
// fallbacks are consulted. The Config type centralizes every knob the daemon
// and CLI need so data/log directories, the HTTP listener, and optional
// collaborators (ntfy, Redis) are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
