package minio

import (
	"context"
	"testing"

	"github.com/hupe1980/ftgs/shardstore"
	"github.com/hupe1980/ftgs/table"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStoreIntegration requires a running MinIO instance. Skip if
// not available.
func TestMinioStoreIntegration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-ftgs"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	_, err = client.ListBuckets(ctx)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		require.NoError(t, err)
	}

	store := NewStore(client, bucket, "test-prefix/")

	b, err := table.NewShardBuilder("node-1:9000", []int{8})
	require.NoError(t, err)
	require.NoError(t, b.AddDoc(1, []int64{42}, []int64{7}, nil))
	sh, err := b.Build()
	require.NoError(t, err)

	require.NoError(t, shardstore.WriteSnapshot(ctx, store, "ds/shard-0001", sh))

	names, err := store.List(ctx, "ds/")
	require.NoError(t, err)
	assert.Equal(t, []string{"ds/shard-0001"}, names)

	got, err := shardstore.ReadSnapshot(ctx, store, "ds/shard-0001")
	require.NoError(t, err)
	assert.Equal(t, sh.Addr(), got.Addr())
	assert.Equal(t, sh.NumDocs(), got.NumDocs())
	assert.Equal(t, sh.Packed().Bytes(), got.Packed().Bytes())

	_, err = store.Open(ctx, "ds/missing")
	assert.ErrorIs(t, err, shardstore.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "ds/shard-0001"))
	require.NoError(t, store.Delete(ctx, "ds/shard-0001"))
}
