package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/imagevault/blobstore"
)

// DDBCommitStore implements blobstore.BlobStore backed by S3 with DynamoDB
// for atomic commits. This enables safe concurrent writers.
//
// A bare flat-file store loses updates when two writers race: both read the
// same state, both rewrite the whole blob, and the second rename wins.
// The commit store closes that gap:
//   - Each Put writes an immutable versioned object ("analyses.json.v42")
//   - A DynamoDB conditional write atomically claims the next version number
//   - A racing writer's conditional write fails with
//     ErrConcurrentModification instead of silently clobbering
//
// Table schema:
//   - Partition key: store_key (string) - baseURI plus the blob name
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name imagevault-commits \
//	  --attribute-definitions AttributeName=store_key,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=store_key,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	s3Store   *Store
	ddbClient DDBClient
	tableName string
	baseURI   string // S3 bucket/prefix used in the partition key
}

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ErrConcurrentModification is returned when a concurrent write is detected.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// NewDDBCommitStore creates a new S3+DynamoDB commit store.
// The baseURI should be "s3://bucket/prefix" format; it namespaces the
// partition keys so one table can serve multiple stores.
func NewDDBCommitStore(s3Store *Store, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	return &DDBCommitStore{
		s3Store:   s3Store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

func (s *DDBCommitStore) storeKey(name string) string {
	return s.baseURI + "/" + name
}

// Open opens the latest committed version of a blob.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	version, err := s.latestVersion(ctx, name)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return s.s3Store.Open(ctx, versionedName(name, version))
}

// Put writes a new immutable version of the blob and commits it with a
// DynamoDB conditional write. Returns ErrConcurrentModification if another
// writer committed the same version first; the caller should re-read and
// retry its whole update.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	current, err := s.latestVersion(ctx, name)
	if err != nil {
		return err
	}
	next := current + 1

	if err := s.s3Store.Put(ctx, versionedName(name, next), data); err != nil {
		return err
	}

	// Conditional put: only succeed if this version doesn't exist yet.
	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"store_key": &types.AttributeValueMemberS{Value: s.storeKey(name)},
			"version":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", next)},
			"s3_key":    &types.AttributeValueMemberS{Value: versionedName(name, next)},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			// Lost the race: our orphaned object is garbage-collected
			// lazily by Delete.
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}

	return nil
}

// Delete removes all committed versions of a blob.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	versions, err := s.allVersions(ctx, name)
	if err != nil {
		return err
	}

	for _, v := range versions {
		if err := s.s3Store.Delete(ctx, versionedName(name, v)); err != nil {
			return err
		}
		_, err := s.ddbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"store_key": &types.AttributeValueMemberS{Value: s.storeKey(name)},
				"version":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", v)},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete version from DynamoDB: %w", err)
		}
	}
	return nil
}

// List returns committed blob names with the given prefix, version
// suffixes stripped and deduplicated.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	raw, err := s.s3Store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var names []string
	for _, n := range raw {
		base := unversionedName(n)
		if _, ok := seen[base]; ok {
			continue
		}
		seen[base] = struct{}{}
		names = append(names, base)
	}
	return names, nil
}

// latestVersion queries DynamoDB for the latest committed version of name.
// Returns 0 if nothing has been committed.
func (s *DDBCommitStore) latestVersion(ctx context.Context, name string) (uint64, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("store_key = :k"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":k": &types.AttributeValueMemberS{Value: s.storeKey(name)},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, nil
	}
	return parseVersionAttr(resp.Items[0])
}

// allVersions returns every committed version of name, ascending.
func (s *DDBCommitStore) allVersions(ctx context.Context, name string) ([]uint64, error) {
	var versions []uint64
	var startKey map[string]types.AttributeValue
	for {
		resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("store_key = :k"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":k": &types.AttributeValueMemberS{Value: s.storeKey(name)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query DynamoDB: %w", err)
		}
		for _, item := range resp.Items {
			v, err := parseVersionAttr(item)
			if err != nil {
				return nil, err
			}
			versions = append(versions, v)
		}
		if resp.LastEvaluatedKey == nil {
			break
		}
		startKey = resp.LastEvaluatedKey
	}
	return versions, nil
}

func parseVersionAttr(item map[string]types.AttributeValue) (uint64, error) {
	attr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("invalid version attribute in DynamoDB")
	}
	var version uint64
	if _, err := fmt.Sscanf(attr.Value, "%d", &version); err != nil {
		return 0, fmt.Errorf("failed to parse version: %w", err)
	}
	return version, nil
}

func versionedName(name string, version uint64) string {
	return fmt.Sprintf("%s.v%d", name, version)
}

func unversionedName(name string) string {
	i := strings.LastIndex(name, ".v")
	if i < 0 {
		return name
	}
	// Only strip a numeric suffix.
	for _, r := range name[i+2:] {
		if r < '0' || r > '9' {
			return name
		}
	}
	if i+2 == len(name) {
		return name
	}
	return name[:i]
}
