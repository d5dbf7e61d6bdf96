package ftgs

import (
	"fmt"

	"github.com/hupe1980/ftgs/stream"
)

// TermType tags the two kinds of dictionary terms.
type TermType uint8

const (
	// TermInt is a 64-bit signed integer term.
	TermInt TermType = iota
	// TermString is a bounded byte-sequence term.
	TermString
)

func (t TermType) String() string {
	switch t {
	case TermInt:
		return "int"
	case TermString:
		return "string"
	default:
		return fmt.Sprintf("TermType(%d)", uint8(t))
	}
}

// wire maps the term type to its framing byte.
func (t TermType) wire() uint8 {
	if t == TermString {
		return stream.TermTypeString
	}
	return stream.TermTypeInt
}

// Term is the dictionary key driving one TGS pass: either an int64 or
// an owned byte sequence. A string Term owns its bytes; the buffer
// passed to NewStringTerm can be reused by the caller afterwards.
type Term struct {
	typ      TermType
	intValue int64
	strValue []byte
}

// NewIntTerm constructs an integer term.
func NewIntTerm(v int64) Term {
	return Term{typ: TermInt, intValue: v}
}

// NewStringTerm constructs a string term from the first n bytes of b,
// copied. It fails if n exceeds len(b).
func NewStringTerm(b []byte, n int) (Term, error) {
	if n < 0 || n > len(b) {
		return Term{}, fmt.Errorf("ftgs: string term length %d out of range [0, %d]", n, len(b))
	}
	owned := make([]byte, n)
	copy(owned, b[:n])
	return Term{typ: TermString, strValue: owned}, nil
}

// Type returns the term kind.
func (t Term) Type() TermType { return t.typ }

// IntValue returns the integer value; only meaningful for TermInt.
func (t Term) IntValue() int64 { return t.intValue }

// StringValue returns the owned byte sequence; only meaningful for
// TermString.
func (t Term) StringValue() []byte { return t.strValue }
