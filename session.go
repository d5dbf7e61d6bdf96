package ftgs

import (
	"fmt"

	"github.com/hupe1980/ftgs/groupbuf"
	"github.com/hupe1980/ftgs/table"
)

const (
	// PrefetchWindow is the row capacity of the scratch buffer that
	// batches document stats before they are merged into the
	// per-group table. Batching trades one bounded extra copy for
	// cache-friendly access to a buffer otherwise hit at random
	// group offsets.
	PrefetchWindow = 64

	// ringCapacity is the size of the pending-group ring. It matches
	// PrefetchWindow so scratch rows and ring entries stay aligned.
	ringCapacity = PrefetchWindow
)

// Session owns the per-query accumulation state: the group-stats
// table, the scratch window, the pending-group ring, and the dirty
// set. Exactly one session serves one in-flight query; sessions are
// never shared across goroutines.
type Session struct {
	numGroups         int
	numStats          int
	onlyBinaryMetrics bool

	groupStats *table.Unpacked
	scratch    *table.Unpacked
	ring       *groupbuf.Ring
	dirty      *groupbuf.DirtySet

	closed bool
}

// NewSession builds the accumulation buffers for numGroups groups and
// numStats statistics, with the column layout copied from sample.
// onlyBinaryMetrics marks every statistic as 0/1-valued, switching
// accumulation from addition to the cheaper logical OR.
func NewSession(numGroups, numStats int, onlyBinaryMetrics bool, sample *table.Packed) (*Session, error) {
	if numGroups <= 0 {
		return nil, fmt.Errorf("ftgs: invalid group count %d", numGroups)
	}
	if sample != nil && numStats != sample.NumCols() {
		return nil, fmt.Errorf("ftgs: session has %d stats but sample table has %d columns", numStats, sample.NumCols())
	}

	groupStats, err := table.NewUnpacked(sample, numGroups)
	if err != nil {
		return nil, err
	}

	return &Session{
		numGroups:         numGroups,
		numStats:          numStats,
		onlyBinaryMetrics: onlyBinaryMetrics,
		groupStats:        groupStats,
		scratch:           groupStats.CopyLayout(PrefetchWindow),
		ring:              groupbuf.NewRing(ringCapacity),
		dirty:             groupbuf.NewDirtySet(numGroups),
	}, nil
}

// NumGroups returns the session's group count.
func (s *Session) NumGroups() int { return s.numGroups }

// NumStats returns the session's statistic count.
func (s *Session) NumStats() int { return s.numStats }

// OnlyBinaryMetrics reports whether all statistics are 0/1-valued.
func (s *Session) OnlyBinaryMetrics() bool { return s.onlyBinaryMetrics }

// GroupStats returns the per-group accumulation table.
func (s *Session) GroupStats() *table.Unpacked { return s.groupStats }

// Close releases all owned buffers. Safe to call once per buffer even
// after a partial failure; subsequent calls are no-ops.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.groupStats = nil
	s.scratch = nil
	s.ring = nil
	s.dirty = nil
	return nil
}

// stageDoc copies one document's stats into the next scratch row and
// queues its group. Reports whether the batch window is now full.
func (s *Session) stageDoc(p *table.Packed, doc int, group uint32) bool {
	row := s.scratch.Row(s.ring.Len())
	for col := 0; col < s.numStats; col++ {
		row[col] = p.Stat(doc, col)
	}
	s.ring.Push(group)
	return s.ring.Full()
}

// drainBatch merges every staged row into the group-stats table and
// marks the touched groups dirty.
func (s *Session) drainBatch() {
	n := s.ring.Len()
	for i := 0; i < n; i++ {
		group := s.ring.Pop()
		vals := s.scratch.Row(i)
		if s.onlyBinaryMetrics {
			s.groupStats.AccumulateOr(int(group), vals)
		} else {
			s.groupStats.AccumulateAdd(int(group), vals)
		}
		s.dirty.Mark(group)
	}
}

// resetPassState zeroes every touched accumulation row, clears the
// dirty flags, and empties the ring. Cost is proportional to groups
// touched. Called on every pass exit, success or failure, so no pass
// ever observes state left over from another.
func (s *Session) resetPassState() {
	for _, g := range s.dirty.Touched() {
		s.groupStats.ResetRow(int(g))
	}
	s.dirty.Reset()
	s.ring.Reset()
}
