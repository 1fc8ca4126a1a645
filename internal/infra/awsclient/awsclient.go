// Where: cli/internal/infra/awsclient/awsclient.go
// What: AWS SDK configuration for S3-compatible storage and DynamoDB.
// Why: Share endpoint and credential handling between the memory store and state backend.
package awsclient

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	defaultRegion = "us-east-1"

	// EnvAccessKey and EnvSecretKey supply static credentials for
	// S3-compatible endpoints (GCS interoperability keys, MinIO).
	EnvAccessKey = "AUTODEPLOY_S3_ACCESS_KEY"
	EnvSecretKey = "AUTODEPLOY_S3_SECRET_KEY"
)

// Options selects region and an optional custom endpoint.
type Options struct {
	Region   string
	Endpoint string
}

// LoadConfig resolves an aws.Config. Static keys from the environment win
// over the default credential chain.
func LoadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	accessKey := strings.TrimSpace(os.Getenv(EnvAccessKey))
	secretKey := strings.TrimSpace(os.Getenv(EnvSecretKey))
	if accessKey != "" && secretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
		loadOpts = append(loadOpts, config.WithCredentialsProvider(creds))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// NewS3 returns an S3 client. A custom endpoint switches to path-style addressing.
func NewS3(ctx context.Context, opts Options) (*s3.Client, error) {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewDynamoDB returns a DynamoDB client.
func NewDynamoDB(ctx context.Context, opts Options) (*dynamodb.Client, error) {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}
