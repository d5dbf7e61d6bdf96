// Package shardstore provides storage access for immutable shard
// snapshots: the serialized form of a shard's packed table and
// posting lists.
//
// A Store is the abstraction over where snapshots live; built-in
// implementations cover the local filesystem (memory-mapped),
// process memory (tests), Amazon S3, and MinIO. Implementations must
// be safe for concurrent use.
package shardstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a snapshot does not exist.
//
// Implementations should return an error satisfying
// errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// Store is the abstraction for reading and writing shard snapshots.
type Store interface {
	// Open opens a snapshot for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a snapshot atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a snapshot.
	Delete(ctx context.Context, name string) error
	// List returns all snapshot names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to one stored snapshot.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the snapshot size in bytes.
	Size() int64
}

// Mappable is an optional interface for Blobs that expose their bytes
// without a copy. The slice is valid until the Blob is closed.
type Mappable interface {
	Bytes() ([]byte, error)
}

// readAll returns the full contents of a blob, zero-copy when the
// blob supports it.
func readAll(b Blob) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		return m.Bytes()
	}
	data := make([]byte, b.Size())
	if _, err := b.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return data, nil
}
