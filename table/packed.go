package table

import (
	"encoding/binary"
	"fmt"
)

const groupColWidth = 4

// Packed is the read-only compact per-document layout of one shard.
//
// Each document occupies one row: a uint32 group id followed by the
// statistic cells at their configured widths, all little-endian. The
// table doubles as a layout template: an Unpacked accumulation buffer
// copies its column count and widths without reading any row data.
type Packed struct {
	widths   []int // width in bytes per stat column (1, 2, 4 or 8)
	offsets  []int // byte offset of each stat column within a row
	rowWidth int
	numDocs  int
	data     []byte
}

// NumDocs returns the number of document rows.
func (p *Packed) NumDocs() int { return p.numDocs }

// NumCols returns the number of statistic columns.
func (p *Packed) NumCols() int { return len(p.widths) }

// ColWidth returns the serialized width of statistic column col.
func (p *Packed) ColWidth(col int) int { return p.widths[col] }

// RowWidth returns the serialized width of one document row.
func (p *Packed) RowWidth() int { return p.rowWidth }

// Group returns the group id of document doc.
func (p *Packed) Group(doc int) uint32 {
	return binary.LittleEndian.Uint32(p.data[doc*p.rowWidth:])
}

// Stat returns the value of statistic column col for document doc,
// sign-extended to int64.
func (p *Packed) Stat(doc, col int) int64 {
	b := p.data[doc*p.rowWidth+p.offsets[col]:]
	switch p.widths[col] {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	default:
		return int64(binary.LittleEndian.Uint64(b))
	}
}

// AppendStats appends all statistic cells of document doc to dst and
// returns the extended slice. dst may be nil.
func (p *Packed) AppendStats(dst []int64, doc int) []int64 {
	for col := range p.widths {
		dst = append(dst, p.Stat(doc, col))
	}
	return dst
}

// Bytes returns the raw packed row data. Callers must treat it as
// read-only; it is exposed for snapshot serialization.
func (p *Packed) Bytes() []byte { return p.data }

// Widths returns the per-column widths. Read-only.
func (p *Packed) Widths() []int { return p.widths }

// NewPackedFromBytes reconstructs a Packed table from serialized row
// data, for snapshot loading. data must hold exactly numDocs rows of
// the layout described by widths.
func NewPackedFromBytes(widths []int, numDocs int, data []byte) (*Packed, error) {
	p, err := newPackedLayout(widths)
	if err != nil {
		return nil, err
	}
	if want := numDocs * p.rowWidth; len(data) != want {
		return nil, fmt.Errorf("table: packed data is %d bytes, want %d (%d docs x %d byte rows)",
			len(data), want, numDocs, p.rowWidth)
	}
	p.numDocs = numDocs
	p.data = data
	return p, nil
}

func newPackedLayout(widths []int) (*Packed, error) {
	if len(widths) == 0 {
		return nil, fmt.Errorf("table: packed layout needs at least one stat column")
	}
	p := &Packed{
		widths:  make([]int, len(widths)),
		offsets: make([]int, len(widths)),
	}
	off := groupColWidth
	for i, w := range widths {
		switch w {
		case 1, 2, 4, 8:
		default:
			return nil, fmt.Errorf("table: invalid stat column width %d (want 1, 2, 4 or 8)", w)
		}
		p.widths[i] = w
		p.offsets[i] = off
		off += w
	}
	p.rowWidth = off
	return p, nil
}

// PackedBuilder assembles an immutable Packed table document by
// document.
type PackedBuilder struct {
	p   *Packed
	err error
}

// NewPackedBuilder creates a builder for the given per-column widths.
func NewPackedBuilder(widths []int) (*PackedBuilder, error) {
	p, err := newPackedLayout(widths)
	if err != nil {
		return nil, err
	}
	return &PackedBuilder{p: p}, nil
}

// AppendDoc appends one document row. stats must have one value per
// configured column; values are truncated to the column width.
func (b *PackedBuilder) AppendDoc(group uint32, stats []int64) error {
	if b.err != nil {
		return b.err
	}
	if len(stats) != len(b.p.widths) {
		b.err = fmt.Errorf("table: document has %d stats, layout has %d columns", len(stats), len(b.p.widths))
		return b.err
	}
	b.p.data = binary.LittleEndian.AppendUint32(b.p.data, group)
	for i, v := range stats {
		switch b.p.widths[i] {
		case 1:
			b.p.data = append(b.p.data, byte(v))
		case 2:
			b.p.data = binary.LittleEndian.AppendUint16(b.p.data, uint16(v))
		case 4:
			b.p.data = binary.LittleEndian.AppendUint32(b.p.data, uint32(v))
		default:
			b.p.data = binary.LittleEndian.AppendUint64(b.p.data, uint64(v))
		}
	}
	b.p.numDocs++
	return nil
}

// Build finalizes the table. The builder must not be reused.
func (b *PackedBuilder) Build() (*Packed, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.p, nil
}
