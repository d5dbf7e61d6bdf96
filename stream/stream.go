package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame tags. See the package comment for the full wire format.
const (
	tagFieldStart  = 0x01
	tagFieldEnd    = 0x02
	tagStreamEnd   = 0x03
	tagTermHeader  = 0x04
	tagGroupRecord = 0x05
)

// Term type bytes carried in field-start and term-header frames.
const (
	TermTypeInt    uint8 = 0
	TermTypeString uint8 = 1
)

// CodeTransport is the error code used when a transport reports a
// failure without a code of its own.
const CodeTransport = 5 // EIO

// ErrStreamClosed is returned for any write attempted after EndStream.
var ErrStreamClosed = errors.New("stream: closed")

// WriteError is a transport failure with the transport's native code
// and a descriptive message safe to log.
type WriteError struct {
	Code int
	Msg  string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("stream: write failed (code %d): %s", e.Code, e.Msg)
}

// Transport is the byte-oriented, ordered, reliable write primitive a
// stream frames onto. Writes are synchronous and bounded; there is no
// cancellation primitive here — callers cancel by closing the
// transport out-of-band, which surfaces as a write error.
type Transport = io.Writer

// State is a stream's framing state.
type State uint8

const (
	StateIdle State = iota
	StateFieldOpen
	StateClosed
)

// Stream is a per-destination framed writer with one-shot error
// capture. Not safe for concurrent use; each stream is exclusively
// owned by the worker holding it.
type Stream struct {
	t       Transport
	state   State
	err     *WriteError
	scratch []byte
}

// New creates a stream over t, starting in IDLE.
func New(t Transport) *Stream {
	return &Stream{t: t, scratch: make([]byte, 0, 64)}
}

// State returns the current framing state.
func (s *Stream) State() State { return s.state }

// LastError returns the captured error without consuming it.
func (s *Stream) LastError() *WriteError { return s.err }

// TakeError returns the captured error and clears it. The error is
// handed off at most once.
func (s *Stream) TakeError() *WriteError {
	e := s.err
	s.err = nil
	return e
}

func (s *Stream) writeFrame(frame []byte) error {
	if _, err := s.t.Write(frame); err != nil {
		var we *WriteError
		if !errors.As(err, &we) {
			we = &WriteError{Code: CodeTransport, Msg: err.Error()}
		}
		s.err = we
		return we
	}
	return nil
}

// StartField writes a field-start marker. The state moves to
// FIELD_OPEN only if the write succeeds.
func (s *Stream) StartField(name string, termType uint8) error {
	if s.state == StateClosed {
		return ErrStreamClosed
	}
	b := s.scratch[:0]
	b = append(b, tagFieldStart, termType)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(name)))
	b = append(b, name...)
	if err := s.writeFrame(b); err != nil {
		return err
	}
	s.state = StateFieldOpen
	return nil
}

// EndField writes a field-end marker and returns to IDLE.
func (s *Stream) EndField() error {
	if s.state == StateClosed {
		return ErrStreamClosed
	}
	if err := s.writeFrame([]byte{tagFieldEnd}); err != nil {
		return err
	}
	s.state = StateIdle
	return nil
}

// EndStream writes the terminal stream-end marker. After a successful
// EndStream every further write fails with ErrStreamClosed.
func (s *Stream) EndStream() error {
	if s.state == StateClosed {
		return ErrStreamClosed
	}
	if err := s.writeFrame([]byte{tagStreamEnd}); err != nil {
		return err
	}
	s.state = StateClosed
	return nil
}

// WriteTermInt writes a term header for an integer term.
func (s *Stream) WriteTermInt(v int64) error {
	if s.state == StateClosed {
		return ErrStreamClosed
	}
	b := s.scratch[:0]
	b = append(b, tagTermHeader, TermTypeInt)
	b = binary.LittleEndian.AppendUint64(b, uint64(v))
	return s.writeFrame(b)
}

// WriteTermString writes a term header for a string term.
func (s *Stream) WriteTermString(term []byte) error {
	if s.state == StateClosed {
		return ErrStreamClosed
	}
	b := s.scratch[:0]
	b = append(b, tagTermHeader, TermTypeString)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(term)))
	b = append(b, term...)
	return s.writeFrame(b)
}

// WriteGroupRecord writes one accumulated (group, stats) record.
func (s *Stream) WriteGroupRecord(group uint32, stats []int64) error {
	if s.state == StateClosed {
		return ErrStreamClosed
	}
	b := s.scratch[:0]
	b = append(b, tagGroupRecord)
	b = binary.LittleEndian.AppendUint32(b, group)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(stats)))
	for _, v := range stats {
		b = binary.LittleEndian.AppendUint64(b, uint64(v))
	}
	err := s.writeFrame(b)
	s.scratch = b[:0]
	return err
}
