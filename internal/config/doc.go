// Package config loads, defaults, and validates gopromerge's TOML
// configuration.
//
// Configuration is optional: without a file every setting falls back to the
// repository defaults, and CLI flags override the file. Validation failures
// are fatal and happen before any merge job is scheduled.
package config
