// Package s3 implements blobstore.BlobStore for Amazon S3.
//
// Store is a plain S3 backend: object puts are atomic, range GETs serve
// partial reads. DDBCommitStore layers DynamoDB conditional writes on top
// so concurrent writers cannot silently overwrite each other's store file —
// the lost-update anomaly of a shared flat-file deployment.
package s3
