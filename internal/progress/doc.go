// Package progress defines how merge progress reaches the user.
//
// The processor emits per-job events through a Reporter; implementations
// render a terminal progress bar or NDJSON. Delivery is decoupled on the
// processor side, so reporters only need to be reasonably quick, never
// correct about timing.
package progress
