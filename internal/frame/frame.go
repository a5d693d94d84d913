// Package frame fixes the serial wire contract: the frame terminator, the
// collision byte the upstream controller substitutes for bytes it cannot
// carry, and the helpers that make raw frames valid MIDI.
package frame

import "strings"

const (
	// Terminator delimits one MIDI message on the serial wire and inside
	// buffer slots. It is never valid payload.
	Terminator byte = 0xFF
	// Collision is the stand-in the upstream controller emits in place of
	// 0x0A, which its framing reserves.
	Collision byte = 0xFA
	// Restored is the value Collision maps back to during ingest.
	Restored byte = 0x0A
)

const hexdigits = "0123456789abcdef"

// Normalize rewrites every Collision byte to Restored, in place, across all
// bytes except the final position (the terminator slot is exempt). It
// returns the number of bytes rewritten.
func Normalize(b []byte) int {
	n := 0
	for i := 0; i < len(b)-1; i++ {
		if b[i] == Collision {
			b[i] = Restored
			n++
		}
	}
	return n
}

// Payload returns the bytes before the first Terminator. A frame with no
// terminator is returned whole; slot contents past the terminator are stale
// and must not be treated as data.
func Payload(b []byte) []byte {
	for i, c := range b {
		if c == Terminator {
			return b[:i]
		}
	}
	return b
}

// HexString renders bytes as lowercase space-separated hex for the transfer
// log, e.g. "90 3c 7f".
func HexString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(b) * 3)
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(hexdigits[c>>4])
		sb.WriteByte(hexdigits[c&0x0F])
	}
	return sb.String()
}
