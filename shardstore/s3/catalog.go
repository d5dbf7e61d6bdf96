package s3

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Catalog records which node each shard snapshot of a dataset is
// assigned to, backed by a DynamoDB table.
//
// Table schema:
//   - Partition key: dataset (string)
//   - Sort key: shard_path (string) - the snapshot name in the store
//   - Attribute: assigned_node (string) - host:port serving the shard
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name ftgs-shard-assignments \
//	  --attribute-definitions AttributeName=dataset,AttributeType=S AttributeName=shard_path,AttributeType=S \
//	  --key-schema AttributeName=dataset,KeyType=HASH AttributeName=shard_path,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type Catalog struct {
	client    DDBClient
	tableName string
}

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Assignment maps one shard snapshot to the node serving it.
type Assignment struct {
	ShardPath    string
	AssignedNode string
}

// NewCatalog creates a catalog on an existing DynamoDB client.
func NewCatalog(client DDBClient, tableName string) *Catalog {
	return &Catalog{
		client:    client,
		tableName: tableName,
	}
}

// GetAssignments returns the dataset's assignments sorted by shard
// path. Pagination is followed to the end.
func (c *Catalog) GetAssignments(ctx context.Context, dataset string) ([]Assignment, error) {
	var out []Assignment

	var startKey map[string]types.AttributeValue
	for {
		resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(c.tableName),
			KeyConditionExpression: aws.String("dataset = :ds"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":ds": &types.AttributeValueMemberS{Value: dataset},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3: query shard assignments: %w", err)
		}

		for _, item := range resp.Items {
			pathAttr, ok := item["shard_path"].(*types.AttributeValueMemberS)
			if !ok {
				return nil, errors.New("s3: invalid shard_path attribute in DynamoDB")
			}
			nodeAttr, ok := item["assigned_node"].(*types.AttributeValueMemberS)
			if !ok {
				return nil, errors.New("s3: invalid assigned_node attribute in DynamoDB")
			}
			out = append(out, Assignment{
				ShardPath:    pathAttr.Value,
				AssignedNode: nodeAttr.Value,
			})
		}

		if resp.LastEvaluatedKey == nil {
			break
		}
		startKey = resp.LastEvaluatedKey
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ShardPath < out[j].ShardPath })
	return out, nil
}

// UpdateAssignments replaces the dataset's assignments: new entries
// are written, entries absent from assignments are deleted.
func (c *Catalog) UpdateAssignments(ctx context.Context, dataset string, assignments []Assignment) error {
	current, err := c.GetAssignments(ctx, dataset)
	if err != nil {
		return err
	}

	keep := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		keep[a.ShardPath] = struct{}{}

		_, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(c.tableName),
			Item: map[string]types.AttributeValue{
				"dataset":       &types.AttributeValueMemberS{Value: dataset},
				"shard_path":    &types.AttributeValueMemberS{Value: a.ShardPath},
				"assigned_node": &types.AttributeValueMemberS{Value: a.AssignedNode},
			},
		})
		if err != nil {
			return fmt.Errorf("s3: put shard assignment %q: %w", a.ShardPath, err)
		}
	}

	for _, a := range current {
		if _, ok := keep[a.ShardPath]; ok {
			continue
		}
		_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(c.tableName),
			Key: map[string]types.AttributeValue{
				"dataset":    &types.AttributeValueMemberS{Value: dataset},
				"shard_path": &types.AttributeValueMemberS{Value: a.ShardPath},
			},
		})
		if err != nil {
			return fmt.Errorf("s3: delete stale shard assignment %q: %w", a.ShardPath, err)
		}
	}

	return nil
}
