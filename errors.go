package ftgs

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionClosed is returned when a pass is run against a
	// closed session.
	ErrSessionClosed = errors.New("ftgs: session closed")

	// ErrWorkerClosed is returned for operations on a closed worker.
	ErrWorkerClosed = errors.New("ftgs: worker closed")
)

// ErrInvalidStreamIndex indicates a stream index at or beyond the
// worker's stream count. The failing operation never touches any
// stream.
type ErrInvalidStreamIndex struct {
	Index int
	Count int
}

func (e *ErrInvalidStreamIndex) Error() string {
	return fmt.Sprintf("ftgs: invalid stream index. stream_num: %d num_streams: %d", e.Index, e.Count)
}

// ErrGroupOutOfRange indicates a document whose group id does not fit
// the session's group count; the shard and session disagree about the
// group space.
type ErrGroupOutOfRange struct {
	Group     uint32
	NumGroups int
	ShardAddr string
}

func (e *ErrGroupOutOfRange) Error() string {
	return fmt.Sprintf("ftgs: group %d out of range (session has %d groups, shard %s)", e.Group, e.NumGroups, e.ShardAddr)
}
