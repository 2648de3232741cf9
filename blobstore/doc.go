// Package blobstore abstracts where datasets and result files live.
//
// BlobStore is a flat namespace of immutable blobs. The data loaders resolve
// dataset URLs (file paths, mem://, s3://, minio://) to a store and read
// through the Blob interface, so the search code never cares whether a
// matrix came from a local file or an object store.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process, backs mem:// URLs and tests
//   - LocalStore: local filesystem with memory-mapped reads
//   - s3.Store: Amazon S3 with range reads and parallel multipart uploads
//   - minio.Store: MinIO and other S3-compatible object stores
//
// # Wrappers
//
//   - CachingStore: LRU block cache in front of a remote store
//   - ThrottledStore: token-bucket throughput cap for background staging
//
// # Custom Implementations
//
// Implement the BlobStore interface to plug in another backend. Blobs that
// additionally implement Mappable get zero-copy fast paths in the loaders.
package blobstore
