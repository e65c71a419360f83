// Package config loads, normalizes, and validates lecturesync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// COURSE_IDS and VIDEOS_DIR. The Config type centralizes every knob the
// extraction, matching, aggregation, and alignment stages need, so driving code
// can build explicit per-stage options from one validated value.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
