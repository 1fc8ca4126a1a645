// Where: cli/internal/provisioner/aws_clients.go
// What: AWS SDK adapters for the state backend bootstrap.
// Why: Map the narrow bootstrap interfaces to SDK calls.
package provisioner

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/poruru/autodeploy/cli/internal/infra/awsclient"
)

// lockKey is the hash key the engine's S3 backend expects in its lock table.
const lockKey = "LockID"

// NewStateBackend builds a StateBackend with SDK clients for opts.
func NewStateBackend(ctx context.Context, bucket, lockTable string, opts awsclient.Options, out io.Writer) (StateBackend, error) {
	s3Client, err := awsclient.NewS3(ctx, opts)
	if err != nil {
		return StateBackend{}, err
	}
	backend := StateBackend{
		Bucket:    bucket,
		LockTable: lockTable,
		S3:        awsS3Client{client: s3Client},
		Out:       out,
	}
	if lockTable != "" {
		ddb, err := awsclient.NewDynamoDB(ctx, opts)
		if err != nil {
			return StateBackend{}, err
		}
		backend.DynamoDB = awsDynamoClient{client: ddb}
	}
	return backend, nil
}

type awsS3Client struct {
	client *s3.Client
}

func (c awsS3Client) ListBuckets(ctx context.Context) ([]string, error) {
	if c.client == nil {
		return nil, fmt.Errorf("s3 client is nil")
	}
	resp, err := c.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Buckets))
	for _, bucket := range resp.Buckets {
		if bucket.Name == nil {
			continue
		}
		names = append(names, *bucket.Name)
	}
	return names, nil
}

func (c awsS3Client) CreateBucket(ctx context.Context, name string) error {
	if c.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	_, err := c.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(name)})
	return err
}

type awsDynamoClient struct {
	client *dynamodb.Client
}

func (c awsDynamoClient) ListTables(ctx context.Context) ([]string, error) {
	if c.client == nil {
		return nil, fmt.Errorf("dynamodb client is nil")
	}
	var names []string
	paginator := dynamodb.NewListTablesPaginator(c.client, &dynamodb.ListTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		names = append(names, page.TableNames...)
	}
	return names, nil
}

func (c awsDynamoClient) CreateLockTable(ctx context.Context, name string) error {
	if c.client == nil {
		return fmt.Errorf("dynamodb client is nil")
	}
	_, err := c.client.CreateTable(ctx, lockTableInput(name))
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		return nil
	}
	return err
}

func lockTableInput(name string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(lockKey), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(lockKey), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	}
}
