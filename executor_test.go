package ftgs

import (
	"bytes"
	"context"
	"testing"

	"github.com/hupe1980/ftgs/stream"
	"github.com/hupe1980/ftgs/table"
	"github.com/stretchr/testify/require"
)

func TestRunAssignmentsParallelWorkers(t *testing.T) {
	sh := buildTestShard(t)

	mkAssignment := func(out *bytes.Buffer) Assignment {
		w := NewWorker([]stream.Transport{out})
		s, err := NewSession(10, 2, false, sh.Packed())
		require.NoError(t, err)
		return Assignment{
			Worker:      w,
			Session:     s,
			Shards:      []*table.Shard{sh},
			StreamIndex: 0,
			CloseStream: true,
			Fields: []FieldJob{{
				Name:     "category",
				TermType: TermInt,
				Terms:    []Term{NewIntTerm(7), NewIntTerm(999)},
			}},
		}
	}

	var out1, out2 bytes.Buffer
	a1 := mkAssignment(&out1)
	a2 := mkAssignment(&out2)
	defer a1.Worker.Close()
	defer a2.Worker.Close()
	defer a1.Session.Close()
	defer a2.Session.Close()

	require.NoError(t, RunAssignments(context.Background(), []Assignment{a1, a2}))

	// Disjoint worker/session pairs over the same shards produce
	// identical, fully ordered streams.
	require.Equal(t, out1.Bytes(), out2.Bytes())

	frames := decodeFrames(t, out1.Bytes())
	require.Equal(t, byte(0x01), frames[0].tag)
	require.Equal(t, "category", frames[0].name)
	require.Equal(t, byte(0x03), frames[len(frames)-1].tag, "stream closed after last field")

	recs := records(frames)
	require.Len(t, recs, 2)
	require.Equal(t, uint32(1), recs[0].group)
	require.Equal(t, uint32(3), recs[1].group)
}

func TestRunAssignmentsPropagatesFailure(t *testing.T) {
	sh := buildTestShard(t)
	tr := &failAfter{n: 0, err: &stream.WriteError{Code: 32, Msg: "reset"}}
	w := NewWorker([]stream.Transport{tr})
	defer w.Close()
	s, err := NewSession(10, 2, false, sh.Packed())
	require.NoError(t, err)
	defer s.Close()

	err = RunAssignments(context.Background(), []Assignment{{
		Worker:      w,
		Session:     s,
		Shards:      []*table.Shard{sh},
		StreamIndex: 0,
		Fields:      []FieldJob{{Name: "f", TermType: TermInt, Terms: []Term{NewIntTerm(7)}}},
	}})

	var we *stream.WriteError
	require.ErrorAs(t, err, &we)
	require.Equal(t, 32, we.Code)
}

func TestRunAssignmentsContextCancelled(t *testing.T) {
	sh := buildTestShard(t)
	var out bytes.Buffer
	w := newTestWorker(&out)
	defer w.Close()
	s, err := NewSession(10, 2, false, sh.Packed())
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = RunAssignments(ctx, []Assignment{{
		Worker:      w,
		Session:     s,
		Shards:      []*table.Shard{sh},
		StreamIndex: 0,
		Fields:      []FieldJob{{Name: "f", TermType: TermInt, Terms: []Term{NewIntTerm(7)}}},
	}})
	require.ErrorIs(t, err, context.Canceled)
}
