// Package admin owns the read-only HTTP surface of a running bridge.
//
// Ownership boundary:
// - health and readiness probes
// - metrics exposition
// - runtime status snapshots
//
// Admin never touches the relay path; it only reads counters.
package admin
