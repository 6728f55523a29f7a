package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/imagevault/blobstore"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.HeadObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.GetObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.DeleteObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.ListObjectsV2Output), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.UploadPartOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.CreateMultipartUploadOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.CompleteMultipartUploadOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockS3Client) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.AbortMultipartUploadOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockDDBClient struct {
	mock.Mock
}

func (m *MockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*dynamodb.PutItemOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*dynamodb.QueryOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*dynamodb.DeleteItemOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestStore_Open(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	t.Run("NotFound", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Bucket == "test-bucket" && *input.Key == "prefix/foo"
		})).Return(nil, &types.NotFound{}).Once()

		_, err := store.Open(context.Background(), "foo")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Bucket == "test-bucket" && *input.Key == "prefix/bar"
		})).Return(&s3.HeadObjectOutput{
			ContentLength: aws.Int64(100),
		}, nil).Once()

		blob, err := store.Open(context.Background(), "bar")
		assert.NoError(t, err)
		assert.Equal(t, int64(100), blob.Size())
	})

	mockClient.AssertExpectations(t)
}

func TestStore_Put(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Key == "prefix/analyses.json"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	err := store.Put(context.Background(), "analyses.json", []byte(`{"analyses":[]}`))
	assert.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func TestStore_BlobReadAt(t *testing.T) {
	mockClient := new(MockS3Client)

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Range == "bytes=6-10"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("world")),
	}, nil).Once()

	blob := &baseBlob{client: mockClient, bucket: "b", key: "k", size: 43}

	buf := make([]byte, 5)
	n, err := blob.ReadAt(context.Background(), buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))

	mockClient.AssertExpectations(t)
}

func TestStore_List(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "test-bucket", "prefix")

	mockClient.On("ListObjectsV2", mock.Anything, mock.Anything).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("prefix/vectors.json")},
			{Key: aws.String("prefix/analyses.json")},
		},
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"analyses.json", "vectors.json"}, names)

	mockClient.AssertExpectations(t)
}

func TestDDBCommitStore_Put(t *testing.T) {
	t.Run("FirstVersion", func(t *testing.T) {
		mockS3 := new(MockS3Client)
		mockDDB := new(MockDDBClient)
		store := NewDDBCommitStore(NewStore(mockS3, "b", "p"), mockDDB, "commits", "s3://b/p")

		mockDDB.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil).Once()
		mockS3.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
			return *input.Key == "p/analyses.json.v1"
		})).Return(&s3.PutObjectOutput{}, nil).Once()
		mockDDB.On("PutItem", mock.Anything, mock.MatchedBy(func(input *dynamodb.PutItemInput) bool {
			v := input.Item["version"].(*ddbtypes.AttributeValueMemberN)
			return v.Value == "1"
		})).Return(&dynamodb.PutItemOutput{}, nil).Once()

		err := store.Put(context.Background(), "analyses.json", []byte("{}"))
		assert.NoError(t, err)

		mockS3.AssertExpectations(t)
		mockDDB.AssertExpectations(t)
	})

	t.Run("ConcurrentModification", func(t *testing.T) {
		mockS3 := new(MockS3Client)
		mockDDB := new(MockDDBClient)
		store := NewDDBCommitStore(NewStore(mockS3, "b", "p"), mockDDB, "commits", "s3://b/p")

		mockDDB.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil).Once()
		mockS3.On("PutObject", mock.Anything, mock.Anything).Return(&s3.PutObjectOutput{}, nil).Once()
		mockDDB.On("PutItem", mock.Anything, mock.Anything).Return(nil, &ddbtypes.ConditionalCheckFailedException{}).Once()

		err := store.Put(context.Background(), "analyses.json", []byte("{}"))
		assert.ErrorIs(t, err, ErrConcurrentModification)
	})
}

func TestDDBCommitStore_Open(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		mockS3 := new(MockS3Client)
		mockDDB := new(MockDDBClient)
		store := NewDDBCommitStore(NewStore(mockS3, "b", "p"), mockDDB, "commits", "s3://b/p")

		mockDDB.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil).Once()

		_, err := store.Open(context.Background(), "analyses.json")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("LatestVersion", func(t *testing.T) {
		mockS3 := new(MockS3Client)
		mockDDB := new(MockDDBClient)
		store := NewDDBCommitStore(NewStore(mockS3, "b", "p"), mockDDB, "commits", "s3://b/p")

		mockDDB.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{
			Items: []map[string]ddbtypes.AttributeValue{{
				"version": &ddbtypes.AttributeValueMemberN{Value: "3"},
				"s3_key":  &ddbtypes.AttributeValueMemberS{Value: "analyses.json.v3"},
			}},
		}, nil).Once()
		mockS3.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Key == "p/analyses.json.v3"
		})).Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(2)}, nil).Once()

		blob, err := store.Open(context.Background(), "analyses.json")
		require.NoError(t, err)
		assert.Equal(t, int64(2), blob.Size())
	})
}

func TestUnversionedName(t *testing.T) {
	assert.Equal(t, "analyses.json", unversionedName("analyses.json.v12"))
	assert.Equal(t, "analyses.json", unversionedName("analyses.json"))
	assert.Equal(t, "weird.vX", unversionedName("weird.vX"))
	assert.Equal(t, "trailing.v", unversionedName("trailing.v"))
}
