// Package blobstore abstracts the storage medium behind the imagevault
// stores.
//
// Both the record store and the similarity index persist as a single blob
// that is read and rewritten whole, so the interface is deliberately small:
// Open for reading, Put for an atomic whole-blob write, Delete and List for
// housekeeping. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, temp-file + rename writes, advisory
//     file locking against concurrent processes
//   - MemoryStore: in-memory, for tests
//   - ThrottledStore: wraps another store with byte-rate limiting
//   - CachingStore: wraps another store with block-level read caching
//   - minio.Store: MinIO / S3-compatible object storage
//   - s3.Store: Amazon S3
//   - s3.DDBCommitStore: S3 with DynamoDB conditional commits for safe
//     concurrent writers
package blobstore
