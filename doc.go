// Package ftgs implements the per-shard execution core of a columnar
// analytics engine: the term-group-stats (TGS) pass.
//
// Given a stream of dictionary terms, a pass locates every matching
// document across a set of memory-resident shards, accumulates the
// configured statistics into per-group buffers, and streams the
// resulting (group, stats) records to downstream consumers over
// framed output connections.
//
// # Usage
//
//	worker := ftgs.NewWorker([]stream.Transport{conn})
//	defer worker.Close()
//
//	session, _ := ftgs.NewSession(numGroups, numStats, false, shards[0].Packed())
//	defer session.Close()
//
//	worker.StartField(0, "country", ftgs.TermString)
//	for _, term := range terms {
//	    worker.RunTGSPass(session, term, shards, 0)
//	}
//	worker.EndField(0)
//	worker.EndStream(0)
//
// # Concurrency
//
// The core has no internal synchronization. One pass runs
// synchronously on the calling goroutine; parallelism comes from
// running independent Worker/Session pairs over disjoint term and
// shard assignments (see RunAssignments). Nothing mutable is shared
// between sessions or workers, so nothing is locked.
package ftgs
