package minio

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/imagevault/blobstore"
)

// TestStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-imagevault"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	_, err = client.ListBuckets(ctx)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		require.NoError(t, err)
	}

	store := NewStore(client, bucket, "test-prefix/")

	// Put and read back
	data := []byte(`{"analyses":[],"metadata":{"totalAnalyses":0}}`)
	err = store.Put(ctx, "analyses.json", data)
	require.NoError(t, err)

	got, err := blobstore.ReadAll(ctx, store, "analyses.json")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// List
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "analyses.json")

	// Delete, then Open reports not found
	err = store.Delete(ctx, "analyses.json")
	require.NoError(t, err)

	_, err = store.Open(ctx, "analyses.json")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	// Deleting again is not an error
	assert.NoError(t, store.Delete(ctx, "analyses.json"))
}
