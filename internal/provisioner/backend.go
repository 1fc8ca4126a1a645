// Where: cli/internal/provisioner/backend.go
// What: Remote state backend bootstrap (bucket and lock table).
// Why: Engine init fails unless the backend storage already exists.
package provisioner

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// S3API is the bucket subset the bootstrap needs.
type S3API interface {
	ListBuckets(ctx context.Context) ([]string, error)
	CreateBucket(ctx context.Context, name string) error
}

// DynamoDBAPI is the table subset the bootstrap needs.
type DynamoDBAPI interface {
	ListTables(ctx context.Context) ([]string, error)
	CreateLockTable(ctx context.Context, name string) error
}

// StateBackend creates the state bucket and lock table when missing.
type StateBackend struct {
	Bucket    string
	LockTable string
	S3        S3API
	DynamoDB  DynamoDBAPI
	Out       io.Writer
}

// Ensure is idempotent: existing resources are reported and skipped.
func (b StateBackend) Ensure(ctx context.Context) error {
	out := b.Out
	if out == nil {
		out = io.Discard
	}
	bucket := strings.TrimSpace(b.Bucket)
	if bucket == "" {
		return fmt.Errorf("state bucket is required")
	}
	if b.S3 == nil {
		return fmt.Errorf("s3 client not configured")
	}
	if err := ensureBucket(ctx, b.S3, bucket, out); err != nil {
		return err
	}

	table := strings.TrimSpace(b.LockTable)
	if table == "" {
		return nil
	}
	if b.DynamoDB == nil {
		return fmt.Errorf("dynamodb client not configured")
	}
	return ensureLockTable(ctx, b.DynamoDB, table, out)
}

func ensureBucket(ctx context.Context, client S3API, name string, out io.Writer) error {
	existing, err := client.ListBuckets(ctx)
	if err != nil {
		return fmt.Errorf("list buckets: %w", err)
	}
	for _, candidate := range existing {
		if candidate == name {
			fmt.Fprintf(out, "Bucket '%s' already exists. Skipping.\n", name)
			return nil
		}
	}
	if err := client.CreateBucket(ctx, name); err != nil {
		return fmt.Errorf("create bucket %s: %w", name, err)
	}
	fmt.Fprintf(out, "Created state bucket: %s\n", name)
	return nil
}

func ensureLockTable(ctx context.Context, client DynamoDBAPI, name string, out io.Writer) error {
	existing, err := client.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	for _, candidate := range existing {
		if candidate == name {
			fmt.Fprintf(out, "Table '%s' already exists. Skipping.\n", name)
			return nil
		}
	}
	if err := client.CreateLockTable(ctx, name); err != nil {
		return fmt.Errorf("create lock table %s: %w", name, err)
	}
	fmt.Fprintf(out, "Created lock table: %s\n", name)
	return nil
}
