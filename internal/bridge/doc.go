// Package bridge owns the relay lifecycle.
//
// Ownership boundary:
// - transport and sink acquisition order
// - ingest and dispatch workers
// - stop propagation and exit status
// - heartbeat and relay counters
//
// Lifecycle order:
// - bootstrap -> serve -> teardown
//
// - the sink opens before the transport and closes after it.
//
// - workers stop cooperatively; nothing is killed mid-write.
package bridge
