package shardstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/ftgs/table"
	"github.com/klauspost/compress/zstd"
)

// Snapshot format:
//
//	[magic "FTGS":4][version:u16][flags:u16][payload]
//
// flags bit 0 marks a zstd-compressed payload. The payload is:
//
//	[addrLen:u32][addr]
//	[numCols:u32][width:u8 ...]
//	[numDocs:u32]
//	[packedLen:u32][packed row bytes]
//	[intTerms:u32] ([term:i64][bmLen:u32][roaring bytes])...
//	[strTerms:u32] ([len:u32][term][bmLen:u32][roaring bytes])...
//
// All integers little-endian. Terms are written in sorted order so
// identical shards serialize to identical bytes.

var snapshotMagic = [4]byte{'F', 'T', 'G', 'S'}

const (
	snapshotVersion  = uint16(1)
	snapshotFlagZstd = uint16(1)
)

// EncodeSnapshot serializes a shard, compressing the payload with
// zstd.
func EncodeSnapshot(sh *table.Shard) ([]byte, error) {
	p := sh.Packed()

	payload := make([]byte, 0, 256+len(p.Bytes()))
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(sh.Addr())))
	payload = append(payload, sh.Addr()...)

	payload = binary.LittleEndian.AppendUint32(payload, uint32(p.NumCols()))
	for _, w := range p.Widths() {
		payload = append(payload, byte(w))
	}
	payload = binary.LittleEndian.AppendUint32(payload, uint32(p.NumDocs()))
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(p.Bytes())))
	payload = append(payload, p.Bytes()...)

	intTerms := make([]int64, 0, len(sh.IntTerms()))
	for t := range sh.IntTerms() {
		intTerms = append(intTerms, t)
	}
	sort.Slice(intTerms, func(i, j int) bool { return intTerms[i] < intTerms[j] })

	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(intTerms)))
	for _, t := range intTerms {
		payload = binary.LittleEndian.AppendUint64(payload, uint64(t))
		b, err := sh.IntTerms()[t].ToBytes()
		if err != nil {
			return nil, fmt.Errorf("shardstore: serialize postings for int term %d: %w", t, err)
		}
		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(b)))
		payload = append(payload, b...)
	}

	strTerms := make([]string, 0, len(sh.StringTerms()))
	for t := range sh.StringTerms() {
		strTerms = append(strTerms, t)
	}
	sort.Strings(strTerms)

	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(strTerms)))
	for _, t := range strTerms {
		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(t)))
		payload = append(payload, t...)
		b, err := sh.StringTerms()[t].ToBytes()
		if err != nil {
			return nil, fmt.Errorf("shardstore: serialize postings for string term %q: %w", t, err)
		}
		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(b)))
		payload = append(payload, b...)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	compressed := enc.EncodeAll(payload, nil)

	out := make([]byte, 0, 8+len(compressed))
	out = append(out, snapshotMagic[:]...)
	out = binary.LittleEndian.AppendUint16(out, snapshotVersion)
	out = binary.LittleEndian.AppendUint16(out, snapshotFlagZstd)
	return append(out, compressed...), nil
}

// DecodeSnapshot reconstructs a shard from serialized snapshot bytes.
func DecodeSnapshot(data []byte) (*table.Shard, error) {
	if len(data) < 8 || [4]byte(data[:4]) != snapshotMagic {
		return nil, fmt.Errorf("shardstore: invalid snapshot magic")
	}
	version := binary.LittleEndian.Uint16(data[4:6])
	if version != snapshotVersion {
		return nil, fmt.Errorf("shardstore: unsupported snapshot version %d", version)
	}
	flags := binary.LittleEndian.Uint16(data[6:8])

	payload := data[8:]
	if flags&snapshotFlagZstd != 0 {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		payload, err = dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("shardstore: decompress snapshot: %w", err)
		}
	}

	r := snapshotReader{b: payload}

	addr := string(r.bytes(int(r.u32())))
	numCols := int(r.u32())
	widths := make([]int, numCols)
	for i := range widths {
		widths[i] = int(r.bytes(1)[0])
	}
	numDocs := int(r.u32())
	packedBytes := r.bytes(int(r.u32()))
	if r.err != nil {
		return nil, fmt.Errorf("shardstore: truncated snapshot header")
	}

	packed, err := table.NewPackedFromBytes(widths, numDocs, packedBytes)
	if err != nil {
		return nil, err
	}

	intPostings := make(map[int64]*roaring.Bitmap)
	for n := r.u32(); n > 0 && r.err == nil; n-- {
		term := int64(r.u64())
		bm := roaring.New()
		if err := bm.UnmarshalBinary(r.bytes(int(r.u32()))); err != nil {
			return nil, fmt.Errorf("shardstore: decode postings for int term %d: %w", term, err)
		}
		intPostings[term] = bm
	}

	strPostings := make(map[string]*roaring.Bitmap)
	for n := r.u32(); n > 0 && r.err == nil; n-- {
		term := string(r.bytes(int(r.u32())))
		bm := roaring.New()
		if err := bm.UnmarshalBinary(r.bytes(int(r.u32()))); err != nil {
			return nil, fmt.Errorf("shardstore: decode postings for string term %q: %w", term, err)
		}
		strPostings[term] = bm
	}
	if r.err != nil {
		return nil, fmt.Errorf("shardstore: truncated snapshot payload")
	}

	return table.NewShard(addr, packed, intPostings, strPostings)
}

// WriteSnapshot serializes sh and stores it under name.
func WriteSnapshot(ctx context.Context, store Store, name string, sh *table.Shard) error {
	data, err := EncodeSnapshot(sh)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

// ReadSnapshot opens the snapshot stored under name and reconstructs
// the shard.
func ReadSnapshot(ctx context.Context, store Store, name string) (*table.Shard, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	data, err := readAll(blob)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data)
}

// snapshotReader is a cursor over payload bytes; the first short read
// sticks in err.
type snapshotReader struct {
	b   []byte
	err error
}

func (r *snapshotReader) bytes(n int) []byte {
	if r.err != nil || n < 0 || n > len(r.b) {
		r.err = fmt.Errorf("short read")
		return nil
	}
	out := r.b[:n]
	r.b = r.b[n:]
	return out
}

func (r *snapshotReader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *snapshotReader) u64() uint64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}
