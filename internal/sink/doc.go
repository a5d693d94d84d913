// Package sink owns the MIDI side of the bridge.
//
// Ownership boundary:
// - driver and output port lifecycle
// - output selection by index or name fragment
// - raw payload writes
package sink
