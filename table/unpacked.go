package table

import "fmt"

// Unpacked is a mutable row-major accumulation buffer with one row per
// group and one int64 cell per statistic column. All cells start at
// zero, the identity of both accumulation rules (add and or).
//
// The column layout (count and serialized widths) is copied from a
// Packed template so output records can be framed at the original
// widths; accumulation itself always happens at int64 precision.
type Unpacked struct {
	numRows int
	numCols int
	widths  []int
	cells   []int64
}

// NewUnpacked allocates a zeroed accumulation buffer with numRows rows
// and the column layout of sample. This is the only way group-stats
// buffers are created; it fails only on invalid arguments.
func NewUnpacked(sample *Packed, numRows int) (*Unpacked, error) {
	if sample == nil {
		return nil, fmt.Errorf("table: nil sample table")
	}
	if numRows <= 0 {
		return nil, fmt.Errorf("table: invalid row count %d", numRows)
	}
	widths := make([]int, sample.NumCols())
	copy(widths, sample.Widths())
	return &Unpacked{
		numRows: numRows,
		numCols: len(widths),
		widths:  widths,
		cells:   make([]int64, numRows*len(widths)),
	}, nil
}

// CopyLayout derives a second zeroed buffer with the same column
// layout but its own row capacity. Used for the fixed-window scratch
// buffer that batches updates before they hit the main table.
func (u *Unpacked) CopyLayout(numRows int) *Unpacked {
	widths := make([]int, u.numCols)
	copy(widths, u.widths)
	return &Unpacked{
		numRows: numRows,
		numCols: u.numCols,
		widths:  widths,
		cells:   make([]int64, numRows*u.numCols),
	}
}

// NumRows returns the row count.
func (u *Unpacked) NumRows() int { return u.numRows }

// NumCols returns the statistic column count.
func (u *Unpacked) NumCols() int { return u.numCols }

// ColWidth returns the serialized width of column col, inherited from
// the layout template.
func (u *Unpacked) ColWidth(col int) int { return u.widths[col] }

// Row returns the live cell slice for one row. Mutations write
// through to the table.
func (u *Unpacked) Row(row int) []int64 {
	off := row * u.numCols
	return u.cells[off : off+u.numCols]
}

// AccumulateAdd adds vals element-wise into row. Addition wraps on
// overflow like the native operator.
func (u *Unpacked) AccumulateAdd(row int, vals []int64) {
	dst := u.Row(row)
	for i, v := range vals {
		dst[i] += v
	}
}

// AccumulateOr combines vals element-wise into row with bitwise OR.
// Valid for metrics known to be 0/1-valued, where OR saturates and is
// cheaper than addition.
func (u *Unpacked) AccumulateOr(row int, vals []int64) {
	dst := u.Row(row)
	for i, v := range vals {
		dst[i] |= v
	}
}

// ResetRow zeroes one row.
func (u *Unpacked) ResetRow(row int) {
	dst := u.Row(row)
	for i := range dst {
		dst[i] = 0
	}
}
