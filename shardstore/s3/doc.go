// Package s3 provides an Amazon S3 implementation of the
// shardstore.Store interface, plus a DynamoDB-backed catalog that
// records which node each shard snapshot is assigned to.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("shards/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	shards, err := shardstore.LoadShards(ctx, store, names, ctrl)
//
// # Features
//
//   - Range reads for partial snapshot fetches
//   - Multipart uploads for large snapshots
//   - Automatic pagination for listing
//   - Configurable prefix for multi-dataset isolation
package s3
