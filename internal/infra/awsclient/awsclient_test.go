package awsclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigUsesStaticKeys(t *testing.T) {
	t.Setenv(EnvAccessKey, "access")
	t.Setenv(EnvSecretKey, "secret")

	cfg, err := LoadConfig(context.Background(), Options{Region: "eu-west-1"})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
}

func TestLoadConfigDefaultsRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	cfg, err := LoadConfig(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.Region)
}

func TestNewClientsWithEndpoint(t *testing.T) {
	t.Setenv(EnvAccessKey, "access")
	t.Setenv(EnvSecretKey, "secret")
	opts := Options{Endpoint: "http://localhost:9000"}

	s3Client, err := NewS3(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, s3Client.Options().UsePathStyle)
	assert.Equal(t, "http://localhost:9000", *s3Client.Options().BaseEndpoint)

	ddb, err := NewDynamoDB(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", *ddb.Options().BaseEndpoint)
}
