package shardstore

import (
	"context"

	"github.com/hupe1980/ftgs/resource"
	"github.com/hupe1980/ftgs/table"
	"golang.org/x/sync/errgroup"
)

// LoadShards reads the named snapshots in parallel and returns the
// shards in the same order as names. ctrl may be nil; when set, it
// caps load concurrency and IO throughput and accounts the resident
// snapshot bytes.
func LoadShards(ctx context.Context, store Store, names []string, ctrl *resource.Controller) ([]*table.Shard, error) {
	shards := make([]*table.Shard, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			if err := ctrl.AcquireLoad(ctx); err != nil {
				return err
			}
			defer ctrl.ReleaseLoad()

			blob, err := store.Open(ctx, name)
			if err != nil {
				return err
			}
			defer blob.Close()

			size := blob.Size()
			if err := ctrl.AcquireIO(ctx, int(size)); err != nil {
				return err
			}
			// The reservation bounds peak memory while snapshots are
			// being decoded, not the lifetime of the shards.
			if err := ctrl.AcquireMemory(ctx, size); err != nil {
				return err
			}
			defer ctrl.ReleaseMemory(size)

			data, err := readAll(blob)
			if err != nil {
				return err
			}
			sh, err := DecodeSnapshot(data)
			if err != nil {
				return err
			}
			shards[i] = sh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return shards, nil
}
