// Where: cli/internal/infra/memstore/store.go
// What: Persisted stores for the deployment memory document.
// Why: Full read on load and full rewrite on save, for a local file or an S3 object.
package memstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/poruru/autodeploy/cli/internal/domain/memory"
	"github.com/poruru/autodeploy/cli/internal/infra/awsclient"
	"github.com/poruru/autodeploy/cli/internal/infra/fileops"
)

// ErrCorrupt is returned when a stored document cannot be decoded.
var ErrCorrupt = errors.New("memory store is corrupt")

// FileStore keeps the document in one JSON file.
type FileStore struct {
	Path string
}

// NewFileStore returns a FileStore for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the file. A missing file yields an empty document.
func (s *FileStore) Load(_ context.Context) (memory.Document, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return memory.NewDocument(), nil
		}
		return memory.Document{}, fmt.Errorf("read memory file: %w", err)
	}
	return decode(data, s.Path)
}

// Save rewrites the whole file through a temporary sibling.
func (s *FileStore) Save(_ context.Context, doc memory.Document) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}
	if err := fileops.EnsureDir(filepath.Dir(s.Path)); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write memory file: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace memory file: %w", err)
	}
	return nil
}

// ObjectAPI is the subset of the S3 client used by ObjectStore.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectStore keeps the document in one S3 object.
type ObjectStore struct {
	API    ObjectAPI
	Bucket string
	Key    string
}

// NewObjectStore builds an ObjectStore with an SDK client for opts.
func NewObjectStore(ctx context.Context, bucket, key string, opts awsclient.Options) (*ObjectStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("memory bucket is required")
	}
	client, err := awsclient.NewS3(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &ObjectStore{API: client, Bucket: bucket, Key: key}, nil
}

// Load fetches the object. A missing object yields an empty document.
func (s *ObjectStore) Load(ctx context.Context) (memory.Document, error) {
	out, err := s.API.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return memory.NewDocument(), nil
		}
		return memory.Document{}, fmt.Errorf("get memory object: %w", err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return memory.Document{}, fmt.Errorf("read memory object: %w", err)
	}
	return decode(data, "s3://"+s.Bucket+"/"+s.Key)
}

// Save replaces the object.
func (s *ObjectStore) Save(ctx context.Context, doc memory.Document) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}
	_, err = s.API.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put memory object: %w", err)
	}
	return nil
}

func decode(data []byte, source string) (memory.Document, error) {
	doc := memory.NewDocument()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return memory.Document{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, source, err)
	}
	if doc.Deployments == nil {
		doc.Deployments = []memory.DeploymentRecord{}
	}
	if doc.Failures == nil {
		doc.Failures = []memory.FailureRecord{}
	}
	return doc, nil
}

func encode(doc memory.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode memory document: %w", err)
	}
	return append(data, '\n'), nil
}
