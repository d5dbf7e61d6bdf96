package ftgs

import (
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/ftgs/stream"
	"github.com/hupe1980/ftgs/table"
)

// passDesc is the ephemeral bundle for one TGS pass: the term, the
// participating shards, and the resolved output stream. It lives
// entirely within RunTGSPass and is never persisted.
type passDesc struct {
	term    Term
	worker  *Worker
	session *Session
	stream  *stream.Stream
	shards  []*table.Shard
}

// RunTGSPass executes one term-group-stats pass: scan the term's
// matching documents in every shard, accumulate their statistics into
// the session's per-group buffers, and flush each dirty group as one
// framed record on the addressed stream, in ascending group-id order.
//
// On a write failure the stream's captured error is handed to the
// worker's error slot, the remaining flush work is abandoned, and a
// non-nil error is returned. Regardless of outcome the session's
// dirty state is fully cleared before returning, so consecutive
// passes never observe each other.
func (w *Worker) RunTGSPass(session *Session, term Term, shards []*table.Shard, streamIndex int) error {
	w.prof.StartTimer(TimerSlotPass)
	defer w.prof.EndTimer(TimerSlotPass)

	start := time.Now()

	s, err := w.resolveStream(streamIndex)
	if err != nil {
		return w.fail(err)
	}
	if session == nil || session.closed {
		return w.fail(ErrSessionClosed)
	}

	desc := passDesc{
		term:    term,
		worker:  w,
		session: session,
		stream:  s,
		shards:  shards,
	}

	docs, groups, err := desc.execute()
	w.metrics.RecordPass(docs, groups, time.Since(start), err)
	if err != nil {
		w.log.WithStream(streamIndex).WithShards(len(shards)).Error("tgs pass failed",
			"term_type", term.Type().String(),
			"error", err,
		)
	}
	return err
}

// execute runs the scan-accumulate-flush cycle. It always leaves the
// session's ring, dirty set, and touched accumulation rows reset.
func (d *passDesc) execute() (docs, groups int, err error) {
	sess := d.session
	defer sess.resetPassState()

	for _, sh := range d.shards {
		var postings *roaring.Bitmap
		if d.term.Type() == TermInt {
			postings = sh.PostingsInt(d.term.IntValue())
		} else {
			postings = sh.PostingsString(d.term.StringValue())
		}
		if postings == nil {
			continue
		}

		p := sh.Packed()
		it := postings.Iterator()
		for it.HasNext() {
			doc := it.Next()
			group := p.Group(int(doc))
			if group == 0 {
				// Group 0 is "no group"; filtered documents land
				// there and never contribute.
				continue
			}
			if int(group) >= sess.numGroups {
				return docs, 0, d.worker.fail(&ErrGroupOutOfRange{
					Group:     group,
					NumGroups: sess.numGroups,
					ShardAddr: sh.Addr(),
				})
			}
			docs++
			if sess.stageDoc(p, int(doc), group) {
				sess.drainBatch()
			}
		}
	}
	sess.drainBatch()

	groups, err = d.flush()
	return docs, groups, err
}

// flush writes the term header and one record per dirty group, then
// leaves row cleanup to resetPassState. Terms that matched nothing
// emit no frames at all.
func (d *passDesc) flush() (int, error) {
	w := d.worker
	sess := d.session

	w.prof.StartTimer(TimerSlotFlush)
	defer w.prof.EndTimer(TimerSlotFlush)

	touched := sess.dirty.Touched()
	if len(touched) == 0 {
		return 0, nil
	}

	var err error
	if d.term.Type() == TermInt {
		err = d.stream.WriteTermInt(d.term.IntValue())
	} else {
		err = d.stream.WriteTermString(d.term.StringValue())
	}
	if err != nil {
		return 0, w.propagate(d.stream, err)
	}

	for i, group := range touched {
		if err := d.stream.WriteGroupRecord(group, sess.groupStats.Row(int(group))); err != nil {
			return i, w.propagate(d.stream, err)
		}
	}
	return len(touched), nil
}
