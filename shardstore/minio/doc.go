// Package minio provides a shardstore.Store implementation for MinIO
// and other S3-compatible object storage, useful for self-hosted
// clusters and integration testing against a local MinIO container.
package minio
