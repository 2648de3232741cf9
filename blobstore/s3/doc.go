// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil { ... }
//
//	store := s3store.NewStore(s3.NewFromConfig(cfg), "my-bucket", "datasets/")
//
// (importing this package as s3store and the AWS SDK service as s3).
//
// # Features
//
//   - Range reads, so loaders fetch only the bytes they need
//   - Streaming multipart uploads for large datasets
//   - CRC32C integrity validation on writes
//   - Automatic pagination for listing
//   - Configurable root prefix for sharing a bucket
package s3
