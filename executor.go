package ftgs

import (
	"context"

	"github.com/hupe1980/ftgs/table"
	"golang.org/x/sync/errgroup"
)

// FieldJob is one field and the terms to pass over it, in order.
type FieldJob struct {
	Name     string
	TermType TermType
	Terms    []Term
}

// Assignment binds one worker/session pair to a disjoint slice of the
// query: its shards, its output stream, and the fields it handles.
type Assignment struct {
	Worker      *Worker
	Session     *Session
	Shards      []*table.Shard
	StreamIndex int
	Fields      []FieldJob
	// CloseStream ends the output stream after the last field.
	CloseStream bool
}

// RunAssignments executes assignments in parallel, one goroutine per
// assignment. This is the external parallelism model of the core:
// each goroutine drives its own worker and session over disjoint
// term/shard slices, so nothing is shared and nothing is locked.
//
// The first failing assignment cancels the context; remaining
// assignments stop between terms. Cancellation mid-write is not
// possible — callers needing a hard stop close the transports, which
// surfaces as a write error on the next flush.
func RunAssignments(ctx context.Context, assignments []Assignment) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, a := range assignments {
		g.Go(func() error {
			return a.run(ctx)
		})
	}
	return g.Wait()
}

func (a Assignment) run(ctx context.Context) error {
	for _, field := range a.Fields {
		if err := a.Worker.StartField(a.StreamIndex, field.Name, field.TermType); err != nil {
			return err
		}
		for _, term := range field.Terms {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := a.Worker.RunTGSPass(a.Session, term, a.Shards, a.StreamIndex); err != nil {
				return err
			}
		}
		if err := a.Worker.EndField(a.StreamIndex); err != nil {
			return err
		}
	}
	if a.CloseStream {
		return a.Worker.EndStream(a.StreamIndex)
	}
	return nil
}
