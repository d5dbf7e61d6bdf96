// Package keycodec provides fixed-width views over serialized integer
// dictionary keys.
//
// A view borrows the backing bytes; it never copies and never owns them.
// The backing region must remain valid for the lifetime of the view.
// All keys are little-endian two's complement, so comparing decoded
// values is identical to comparing the native integers.
package keycodec

import (
	"encoding/binary"
	"fmt"
)

// Int64Width is the serialized width of an Int64 key in bytes.
const Int64Width = 8

// Int64PairWidth is the serialized width of an Int64Pair key in bytes.
const Int64PairWidth = 16

// Int64 is a read-only view over one serialized 64-bit signed key.
type Int64 struct {
	b []byte
}

// NewInt64 creates a view over the first Int64Width bytes of b.
// It fails if b is too short; the caller keeps ownership of b.
func NewInt64(b []byte) (Int64, error) {
	if len(b) < Int64Width {
		return Int64{}, fmt.Errorf("keycodec: int64 key needs %d bytes, have %d", Int64Width, len(b))
	}
	return Int64{b: b[:Int64Width]}, nil
}

// Value decodes the key.
func (k Int64) Value() int64 {
	return int64(binary.LittleEndian.Uint64(k.b))
}

// Len returns the serialized width in bytes.
func (k Int64) Len() int { return Int64Width }

// Bytes returns the borrowed backing region.
func (k Int64) Bytes() []byte { return k.b }

// Compare orders k against rhs like native signed comparison:
// negative if k < rhs, zero if equal, positive if k > rhs.
func (k Int64) Compare(rhs Int64) int {
	a, b := k.Value(), rhs.Value()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less reports whether k orders before rhs.
func (k Int64) Less(rhs Int64) bool { return k.Value() < rhs.Value() }

// Equal reports whether k and rhs decode to the same value.
func (k Int64) Equal(rhs Int64) bool { return k.Value() == rhs.Value() }

// AppendInt64 appends the serialized form of v to dst.
func AppendInt64(dst []byte, v int64) []byte {
	return binary.LittleEndian.AppendUint64(dst, uint64(v))
}

// Int64Pair is a read-only view over two consecutive serialized
// 64-bit signed keys.
//
// Ordering on pairs is a placeholder: Less compares the first
// component only and MUST NOT be used to sort pairs. Callers that need
// a total order must supply their own comparator. Equality is exact.
type Int64Pair struct {
	b []byte
}

// NewInt64Pair creates a view over the first Int64PairWidth bytes of b.
func NewInt64Pair(b []byte) (Int64Pair, error) {
	if len(b) < Int64PairWidth {
		return Int64Pair{}, fmt.Errorf("keycodec: int64 pair key needs %d bytes, have %d", Int64PairWidth, len(b))
	}
	return Int64Pair{b: b[:Int64PairWidth]}, nil
}

// First decodes the first component.
func (k Int64Pair) First() int64 {
	return int64(binary.LittleEndian.Uint64(k.b[:8]))
}

// Second decodes the second component.
func (k Int64Pair) Second() int64 {
	return int64(binary.LittleEndian.Uint64(k.b[8:]))
}

// Len returns the serialized width in bytes.
func (k Int64Pair) Len() int { return Int64PairWidth }

// Bytes returns the borrowed backing region.
func (k Int64Pair) Bytes() []byte { return k.b }

// Equal reports whether both components match.
func (k Int64Pair) Equal(rhs Int64Pair) bool {
	return k.First() == rhs.First() && k.Second() == rhs.Second()
}

// Less compares the first component only. Not a total order; see the
// type comment.
func (k Int64Pair) Less(rhs Int64Pair) bool {
	return k.First() < rhs.First()
}

// AppendInt64Pair appends the serialized form of (a, b) to dst.
func AppendInt64Pair(dst []byte, a, b int64) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, uint64(a))
	return binary.LittleEndian.AppendUint64(dst, uint64(b))
}
