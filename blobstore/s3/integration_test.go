package s3

import (
	"context"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/imagevault/blobstore"
)

// TestStore_Integration runs against real S3. Requires AWS credentials and
// IMAGEVAULT_TEST_BUCKET; skipped otherwise.
func TestStore_Integration(t *testing.T) {
	bucket := os.Getenv("IMAGEVAULT_TEST_BUCKET")
	if bucket == "" {
		t.Skip("IMAGEVAULT_TEST_BUCKET not set")
	}

	ctx := context.Background()

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		t.Skipf("AWS config not available: %v", err)
	}

	store := NewStore(s3.NewFromConfig(cfg), bucket, "imagevault-test/")

	data := []byte(`{"analyses":[],"metadata":{"totalAnalyses":0}}`)
	require.NoError(t, store.Put(ctx, "analyses.json", data))

	got, err := blobstore.ReadAll(ctx, store, "analyses.json")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "analyses.json")

	require.NoError(t, store.Delete(ctx, "analyses.json"))

	_, err = store.Open(ctx, "analyses.json")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
