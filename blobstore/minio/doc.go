// Package minio implements blobstore.BlobStore for MinIO and other
// S3-compatible object storage.
//
// Object writes through PutObject are atomic on the server side, which is
// exactly the whole-blob contract the imagevault stores need.
package minio
