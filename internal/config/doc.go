// Package config loads, normalizes, and validates autolist configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the SPOTIFY_ACCESS_TOKEN
// environment fallback. Sorting rules are declared as an array of tables so
// their order in the file is their matching priority.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical match settings, and clear validation errors.
package config
