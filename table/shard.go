package table

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Shard is an immutable, memory-resident partition of documents: a
// Packed statistics table plus the per-term posting lists that map a
// dictionary term to the documents carrying it.
//
// Shards are owned by the caller. The execution core only borrows them
// for the duration of a pass and never mutates them. Documents with
// group id 0 belong to no group and are skipped during accumulation.
type Shard struct {
	addr        string
	packed      *Packed
	intPostings map[int64]*roaring.Bitmap
	strPostings map[string]*roaring.Bitmap
}

// Addr returns the network address the shard was served from.
func (s *Shard) Addr() string { return s.addr }

// NumDocs returns the shard's document count.
func (s *Shard) NumDocs() int { return s.packed.NumDocs() }

// Packed returns the shard's read-only statistics table.
func (s *Shard) Packed() *Packed { return s.packed }

// PostingsInt returns the documents matching an integer term, or nil
// if the term does not occur in this shard.
func (s *Shard) PostingsInt(term int64) *roaring.Bitmap {
	return s.intPostings[term]
}

// PostingsString returns the documents matching a string term, or nil
// if the term does not occur in this shard.
func (s *Shard) PostingsString(term []byte) *roaring.Bitmap {
	return s.strPostings[string(term)]
}

// IntTerms returns the integer posting index. Read-only; exposed for
// snapshot serialization.
func (s *Shard) IntTerms() map[int64]*roaring.Bitmap { return s.intPostings }

// StringTerms returns the string posting index. Read-only; exposed
// for snapshot serialization.
func (s *Shard) StringTerms() map[string]*roaring.Bitmap { return s.strPostings }

// NewShard assembles a shard from already-built parts, used by
// snapshot loading. Posting maps may be nil.
func NewShard(addr string, packed *Packed, intPostings map[int64]*roaring.Bitmap, strPostings map[string]*roaring.Bitmap) (*Shard, error) {
	if packed == nil {
		return nil, fmt.Errorf("table: shard needs a packed table")
	}
	if intPostings == nil {
		intPostings = make(map[int64]*roaring.Bitmap)
	}
	if strPostings == nil {
		strPostings = make(map[string]*roaring.Bitmap)
	}
	return &Shard{
		addr:        addr,
		packed:      packed,
		intPostings: intPostings,
		strPostings: strPostings,
	}, nil
}

// ShardBuilder assembles a shard document by document, maintaining the
// posting lists alongside the packed rows.
type ShardBuilder struct {
	addr        string
	pb          *PackedBuilder
	intPostings map[int64]*roaring.Bitmap
	strPostings map[string]*roaring.Bitmap
	nextDoc     uint32
}

// NewShardBuilder creates a builder for a shard at addr with the given
// stat column widths.
func NewShardBuilder(addr string, widths []int) (*ShardBuilder, error) {
	pb, err := NewPackedBuilder(widths)
	if err != nil {
		return nil, err
	}
	return &ShardBuilder{
		addr:        addr,
		pb:          pb,
		intPostings: make(map[int64]*roaring.Bitmap),
		strPostings: make(map[string]*roaring.Bitmap),
	}, nil
}

// AddDoc appends one document with its group, stat values, and the
// terms it matches.
func (b *ShardBuilder) AddDoc(group uint32, stats []int64, intTerms []int64, strTerms []string) error {
	if err := b.pb.AppendDoc(group, stats); err != nil {
		return err
	}
	doc := b.nextDoc
	b.nextDoc++
	for _, t := range intTerms {
		bm, ok := b.intPostings[t]
		if !ok {
			bm = roaring.New()
			b.intPostings[t] = bm
		}
		bm.Add(doc)
	}
	for _, t := range strTerms {
		bm, ok := b.strPostings[t]
		if !ok {
			bm = roaring.New()
			b.strPostings[t] = bm
		}
		bm.Add(doc)
	}
	return nil
}

// Build finalizes the shard. The builder must not be reused.
func (b *ShardBuilder) Build() (*Shard, error) {
	p, err := b.pb.Build()
	if err != nil {
		return nil, err
	}
	return &Shard{
		addr:        b.addr,
		packed:      p,
		intPostings: b.intPostings,
		strPostings: b.strPostings,
	}, nil
}
