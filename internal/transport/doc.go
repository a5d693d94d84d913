// Package transport owns the serial side of the bridge.
//
// Ownership boundary:
// - device open/close and line configuration
// - timed readiness polling
// - terminator-delimited frame assembly
// - input flush on overflow
package transport
