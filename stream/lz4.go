package stream

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4Transport wraps a Transport and compresses every frame written
// through it as an independent lz4 block:
//
//	[rawLen:u32][compLen:u32][block]
//
// compLen == 0 means the block was incompressible and is stored raw.
// Per-frame blocks keep the failure semantics of the underlying
// transport: a frame either reaches the wire completely or the write
// error surfaces on this call, never later at a flush boundary.
type LZ4Transport struct {
	w       io.Writer
	scratch []byte
}

// NewLZ4Transport creates a compressing transport over w.
func NewLZ4Transport(w io.Writer) *LZ4Transport {
	return &LZ4Transport{w: w}
}

// Write implements Transport.
func (t *LZ4Transport) Write(p []byte) (int, error) {
	bound := lz4.CompressBlockBound(len(p))
	if cap(t.scratch) < 8+bound {
		t.scratch = make([]byte, 8+bound)
	}
	buf := t.scratch[:8]
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(p)))

	var c lz4.Compressor
	n, err := c.CompressBlock(p, t.scratch[8:8+bound])
	if err != nil {
		return 0, fmt.Errorf("stream: lz4 compress: %w", err)
	}
	if n == 0 || n >= len(p) {
		// Incompressible, store raw.
		binary.LittleEndian.PutUint32(buf[4:8], 0)
		buf = append(buf, p...)
	} else {
		binary.LittleEndian.PutUint32(buf[4:8], uint32(n))
		buf = t.scratch[:8+n]
	}

	if _, err := t.w.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

// LZ4Reader decompresses a stream produced through an LZ4Transport,
// yielding the original frame bytes in order.
type LZ4Reader struct {
	r       io.Reader
	pending []byte
}

// NewLZ4Reader creates a reader over r.
func NewLZ4Reader(r io.Reader) *LZ4Reader {
	return &LZ4Reader{r: r}
}

// Read implements io.Reader.
func (l *LZ4Reader) Read(p []byte) (int, error) {
	for len(l.pending) == 0 {
		var hdr [8]byte
		if _, err := io.ReadFull(l.r, hdr[:]); err != nil {
			return 0, err
		}
		rawLen := binary.LittleEndian.Uint32(hdr[0:4])
		compLen := binary.LittleEndian.Uint32(hdr[4:8])
		if compLen == 0 {
			l.pending = make([]byte, rawLen)
			if _, err := io.ReadFull(l.r, l.pending); err != nil {
				return 0, err
			}
			continue
		}
		comp := make([]byte, compLen)
		if _, err := io.ReadFull(l.r, comp); err != nil {
			return 0, err
		}
		raw := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(comp, raw)
		if err != nil {
			return 0, fmt.Errorf("stream: lz4 uncompress: %w", err)
		}
		l.pending = raw[:n]
	}
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}
