package ftgs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/hupe1980/ftgs/stream"
	"github.com/hupe1980/ftgs/table"
	"github.com/stretchr/testify/require"
)

// frame is a decoded output frame for assertions.
type frame struct {
	tag     byte
	name    string
	termInt int64
	termStr string
	group   uint32
	stats   []int64
}

// decodeFrames parses the documented wire format back into frames.
func decodeFrames(t *testing.T, b []byte) []frame {
	t.Helper()
	var out []frame
	for len(b) > 0 {
		f := frame{tag: b[0]}
		b = b[1:]
		switch f.tag {
		case 0x01: // field start
			n := binary.LittleEndian.Uint32(b[1:5])
			f.name = string(b[5 : 5+n])
			b = b[5+n:]
		case 0x02, 0x03: // field end, stream end
		case 0x04: // term header
			if b[0] == stream.TermTypeInt {
				f.termInt = int64(binary.LittleEndian.Uint64(b[1:9]))
				b = b[9:]
			} else {
				n := binary.LittleEndian.Uint32(b[1:5])
				f.termStr = string(b[5 : 5+n])
				b = b[5+n:]
			}
		case 0x05: // group record
			f.group = binary.LittleEndian.Uint32(b[0:4])
			n := binary.LittleEndian.Uint32(b[4:8])
			b = b[8:]
			for i := uint32(0); i < n; i++ {
				f.stats = append(f.stats, int64(binary.LittleEndian.Uint64(b[:8])))
				b = b[8:]
			}
		default:
			t.Fatalf("unknown frame tag 0x%02x", f.tag)
		}
		out = append(out, f)
	}
	return out
}

func records(frames []frame) []frame {
	var out []frame
	for _, f := range frames {
		if f.tag == 0x05 {
			out = append(out, f)
		}
	}
	return out
}

// buildTestShard creates one shard of 100 docs with two int64 stat
// columns. Docs 10 and 30 match term 7 and live in groups 1 and 3;
// doc 50 also matches term 7 but sits in group 0 and must be skipped.
func buildTestShard(t *testing.T) *table.Shard {
	t.Helper()
	b, err := table.NewShardBuilder("node-1:9000", []int{8, 8})
	require.NoError(t, err)
	for doc := 0; doc < 100; doc++ {
		group := uint32(0)
		var terms []int64
		switch doc {
		case 10:
			group, terms = 1, []int64{7}
		case 30:
			group, terms = 3, []int64{7}
		case 50:
			group, terms = 0, []int64{7}
		default:
			group = uint32(doc % 5)
		}
		require.NoError(t, b.AddDoc(group, []int64{int64(doc), 1}, terms, nil))
	}
	sh, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, 100, sh.NumDocs())
	return sh
}

func newTestWorker(bufs ...*bytes.Buffer) *Worker {
	transports := make([]stream.Transport, len(bufs))
	for i, b := range bufs {
		transports[i] = b
	}
	return NewWorker(transports)
}

func TestRunTGSPassFlushesDirtyGroupsAscending(t *testing.T) {
	sh := buildTestShard(t)
	var out bytes.Buffer
	w := newTestWorker(&out)
	defer w.Close()

	s, err := NewSession(10, 2, false, sh.Packed())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, w.StartField(0, "category", TermInt))
	require.NoError(t, w.RunTGSPass(s, NewIntTerm(7), []*table.Shard{sh}, 0))
	require.NoError(t, w.EndField(0))

	recs := records(decodeFrames(t, out.Bytes()))
	require.Len(t, recs, 2, "only groups 1 and 3 received matches")
	require.Equal(t, uint32(1), recs[0].group)
	require.Equal(t, []int64{10, 1}, recs[0].stats)
	require.Equal(t, uint32(3), recs[1].group)
	require.Equal(t, []int64{30, 1}, recs[1].stats)

	// The dirty set is fully cleared: a second pass over a term with
	// no matches must emit nothing.
	out.Reset()
	require.NoError(t, w.StartField(0, "category", TermInt))
	require.NoError(t, w.RunTGSPass(s, NewIntTerm(999), []*table.Shard{sh}, 0))
	recs = records(decodeFrames(t, out.Bytes()))
	require.Empty(t, recs, "no leftover dirty flags from the first pass")
}

func TestRunTGSPassDeterministic(t *testing.T) {
	sh := buildTestShard(t)

	run := func() []byte {
		var out bytes.Buffer
		w := newTestWorker(&out)
		defer w.Close()
		s, err := NewSession(10, 2, false, sh.Packed())
		require.NoError(t, err)
		defer s.Close()

		require.NoError(t, w.StartField(0, "category", TermInt))
		require.NoError(t, w.RunTGSPass(s, NewIntTerm(7), []*table.Shard{sh}, 0))
		require.NoError(t, w.EndField(0))
		require.NoError(t, w.EndStream(0))
		return out.Bytes()
	}

	require.Equal(t, run(), run(), "same term over same shards with fresh sessions must be byte-identical")
}

func TestRunTGSPassMultipleShards(t *testing.T) {
	// Two shards contributing to the same group: stats accumulate
	// across shards within one pass.
	mk := func(addr string, stat int64) *table.Shard {
		b, err := table.NewShardBuilder(addr, []int{8})
		require.NoError(t, err)
		require.NoError(t, b.AddDoc(2, []int64{stat}, []int64{1}, nil))
		sh, err := b.Build()
		require.NoError(t, err)
		return sh
	}
	shards := []*table.Shard{mk("a:1", 5), mk("b:1", 11)}

	var out bytes.Buffer
	w := newTestWorker(&out)
	defer w.Close()
	s, err := NewSession(4, 1, false, shards[0].Packed())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, w.StartField(0, "f", TermInt))
	require.NoError(t, w.RunTGSPass(s, NewIntTerm(1), shards, 0))

	recs := records(decodeFrames(t, out.Bytes()))
	require.Len(t, recs, 1)
	require.Equal(t, uint32(2), recs[0].group)
	require.Equal(t, []int64{16}, recs[0].stats)
}

func TestRunTGSPassStringTerm(t *testing.T) {
	b, err := table.NewShardBuilder("n:1", []int{8})
	require.NoError(t, err)
	require.NoError(t, b.AddDoc(1, []int64{3}, nil, []string{"us"}))
	require.NoError(t, b.AddDoc(2, []int64{4}, nil, []string{"uk"}))
	sh, err := b.Build()
	require.NoError(t, err)

	var out bytes.Buffer
	w := newTestWorker(&out)
	defer w.Close()
	s, err := NewSession(4, 1, false, sh.Packed())
	require.NoError(t, err)
	defer s.Close()

	term, err := NewStringTerm([]byte("usa"), 2)
	require.NoError(t, err)

	require.NoError(t, w.StartField(0, "country", TermString))
	require.NoError(t, w.RunTGSPass(s, term, []*table.Shard{sh}, 0))

	frames := decodeFrames(t, out.Bytes())
	require.Equal(t, "us", frames[1].termStr)
	recs := records(frames)
	require.Len(t, recs, 1)
	require.Equal(t, uint32(1), recs[0].group)
	require.Equal(t, []int64{3}, recs[0].stats)
}

func TestRunTGSPassOnlyBinaryMetrics(t *testing.T) {
	// Three docs in the same group with a 0/1 metric: OR saturates at
	// 1 where addition would give 3.
	b, err := table.NewShardBuilder("n:1", []int{1})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, b.AddDoc(1, []int64{1}, []int64{5}, nil))
	}
	sh, err := b.Build()
	require.NoError(t, err)

	var out bytes.Buffer
	w := newTestWorker(&out)
	defer w.Close()
	s, err := NewSession(2, 1, true, sh.Packed())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, w.StartField(0, "f", TermInt))
	require.NoError(t, w.RunTGSPass(s, NewIntTerm(5), []*table.Shard{sh}, 0))

	recs := records(decodeFrames(t, out.Bytes()))
	require.Len(t, recs, 1)
	require.Equal(t, []int64{1}, recs[0].stats, "binary metrics combine with OR, not addition")
}

// failAfter fails every write once n writes have succeeded.
type failAfter struct {
	n    int
	err  error
	done int
	buf  bytes.Buffer
}

func (f *failAfter) Write(p []byte) (int, error) {
	if f.done >= f.n {
		return 0, f.err
	}
	f.done++
	return f.buf.Write(p)
}

func TestRunTGSPassTransportFailureMidFlush(t *testing.T) {
	sh := buildTestShard(t)
	native := &stream.WriteError{Code: 32, Msg: "connection reset by peer"}
	// Allow field start, term header, and the first record; fail on
	// the second record.
	tr := &failAfter{n: 3, err: native}
	w := NewWorker([]stream.Transport{tr})
	defer w.Close()

	s, err := NewSession(10, 2, false, sh.Packed())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, w.StartField(0, "category", TermInt))
	err = w.RunTGSPass(s, NewIntTerm(7), []*table.Shard{sh}, 0)
	require.Error(t, err)

	// The worker's error slot equals the transport's reported error.
	var we *stream.WriteError
	require.ErrorAs(t, w.LastError(), &we)
	require.Equal(t, 32, we.Code)
	require.Equal(t, "connection reset by peer", we.Msg)

	// One-shot hand-off: the stream no longer holds the error.
	require.Nil(t, w.streams[0].LastError())

	// No further records written after the failure.
	recs := records(decodeFrames(t, tr.buf.Bytes()))
	require.Len(t, recs, 1)
	require.Equal(t, uint32(1), recs[0].group)

	// Cleanup still ran: dirty state is gone and the accumulation
	// rows are zeroed, so a fresh transport sees a clean session.
	require.Zero(t, s.dirty.Count())
	require.Zero(t, s.GroupStats().Row(1)[0])
	require.Zero(t, s.GroupStats().Row(3)[0])
}

func TestRunTGSPassGroupOutOfRange(t *testing.T) {
	b, err := table.NewShardBuilder("n:1", []int{8})
	require.NoError(t, err)
	require.NoError(t, b.AddDoc(9, []int64{1}, []int64{1}, nil))
	sh, err := b.Build()
	require.NoError(t, err)

	var out bytes.Buffer
	w := newTestWorker(&out)
	defer w.Close()
	s, err := NewSession(4, 1, false, sh.Packed())
	require.NoError(t, err)
	defer s.Close()

	err = w.RunTGSPass(s, NewIntTerm(1), []*table.Shard{sh}, 0)
	var oor *ErrGroupOutOfRange
	require.ErrorAs(t, err, &oor)
	require.Equal(t, uint32(9), oor.Group)
	require.Equal(t, 4, oor.NumGroups)
	require.ErrorAs(t, w.LastError(), &oor)
	require.Zero(t, s.dirty.Count(), "cleanup runs on failure")
}

func TestRunTGSPassInvalidStream(t *testing.T) {
	sh := buildTestShard(t)
	var out bytes.Buffer
	w := newTestWorker(&out)
	defer w.Close()
	s, err := NewSession(10, 2, false, sh.Packed())
	require.NoError(t, err)
	defer s.Close()

	err = w.RunTGSPass(s, NewIntTerm(7), []*table.Shard{sh}, 5)
	var inv *ErrInvalidStreamIndex
	require.ErrorAs(t, err, &inv)
	require.Empty(t, out.Bytes())
}

func TestRunTGSPassClosedSession(t *testing.T) {
	sh := buildTestShard(t)
	var out bytes.Buffer
	w := newTestWorker(&out)
	defer w.Close()

	s, err := NewSession(10, 2, false, sh.Packed())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = w.RunTGSPass(s, NewIntTerm(7), []*table.Shard{sh}, 0)
	require.ErrorIs(t, err, ErrSessionClosed)
	require.ErrorIs(t, w.LastError(), ErrSessionClosed)
}

func TestRunTGSPassProfilerAndMetrics(t *testing.T) {
	sh := buildTestShard(t)
	prof := NewBasicProfiler()
	metrics := &BasicMetricsCollector{}
	var out bytes.Buffer
	w := NewWorker([]stream.Transport{&out}, WithProfiler(prof), WithMetricsCollector(metrics))
	defer w.Close()

	s, err := NewSession(10, 2, false, sh.Packed())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, w.StartField(0, "category", TermInt))
	require.NoError(t, w.RunTGSPass(s, NewIntTerm(7), []*table.Shard{sh}, 0))

	require.Equal(t, int64(1), prof.Count(TimerSlotPass))
	require.Equal(t, int64(1), prof.Count(TimerSlotFlush))
	require.Equal(t, int64(1), metrics.PassCount.Load())
	require.Equal(t, int64(2), metrics.DocsScanned.Load(), "group-0 doc is filtered before counting")
	require.Equal(t, int64(2), metrics.GroupsFlushed.Load())
	require.Zero(t, metrics.PassErrors.Load())
}

var errBoom = errors.New("boom")

func TestWorkerPropagatesPlainTransportError(t *testing.T) {
	tr := &failAfter{n: 0, err: errBoom}
	w := NewWorker([]stream.Transport{tr})
	defer w.Close()

	err := w.StartField(0, "f", TermInt)
	require.Error(t, err)
	var we *stream.WriteError
	require.ErrorAs(t, w.LastError(), &we)
	require.Contains(t, we.Msg, "boom")
}
