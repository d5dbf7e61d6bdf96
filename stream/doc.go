// Package stream implements the framed output protocol that carries
// accumulated (group, stats) records to downstream consumers.
//
// Each destination gets one Stream over a byte-oriented, ordered,
// reliable Transport. A stream moves through a small state machine:
//
//	IDLE -> FIELD_OPEN   (StartField)
//	FIELD_OPEN -> IDLE   (EndField, may repeat)
//	IDLE -> CLOSED       (EndStream, terminal)
//
// # Wire format
//
// All integers are little-endian. Every frame starts with a one-byte
// tag:
//
//	0x01 field start   [tag][termType:1][nameLen:u32][name]
//	0x02 field end     [tag]
//	0x03 stream end    [tag]
//	0x04 term header   [tag][termType:1] then
//	                     int:    [value:i64]
//	                     string: [len:u32][bytes]
//	0x05 group record  [tag][group:u32][numStats:u32][stat:i64 ...]
//
// Term headers and group records are only valid between a field start
// and the matching field end. The format is self-describing per
// record; it deliberately does not promise byte-level compatibility
// with any other system.
//
// # Error capture
//
// A failed transport write is captured on the stream as a one-shot
// *WriteError and also returned to the caller. TakeError hands the
// captured error off exactly once (read-then-clear); a new error only
// lands after the previous one was taken.
package stream
