// Where: cli/internal/infra/dockerbuild/publisher.go
// What: Local image build and push through the Docker daemon.
// Why: Publish service images without a remote build service.
package dockerbuild

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
)

// ErrBuildFailed is returned when the daemon reports a build or push error.
var ErrBuildFailed = errors.New("image build failed")

// DockerAPI is the subset of the Docker client used by Publisher.
type DockerAPI interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	ImagePush(ctx context.Context, ref string, options image.PushOptions) (io.ReadCloser, error)
}

// Publisher builds an image from a source directory and pushes it.
type Publisher struct {
	API    DockerAPI
	Logger *slog.Logger
	// Auth is the registry credential used for pushes. Empty pushes anonymously.
	Auth registry.AuthConfig
}

// NewClient returns a Docker client configured from the environment.
func NewClient() (*client.Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// New wraps a Docker API client.
func New(api DockerAPI, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{API: api, Logger: logger.With("component", "dockerbuild")}
}

// BuildAndPublish builds sourcePath with its Dockerfile, tags it imageRef and pushes it.
func (p *Publisher) BuildAndPublish(ctx context.Context, sourcePath, imageRef string) (string, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return "", fmt.Errorf("build context cannot be empty")
	}
	if strings.TrimSpace(imageRef) == "" {
		return "", fmt.Errorf("image tag cannot be empty")
	}
	buildCtx, err := archive.TarWithOptions(sourcePath, &archive.TarOptions{})
	if err != nil {
		return "", fmt.Errorf("create build context: %w", err)
	}
	defer buildCtx.Close()

	resp, err := p.API.ImageBuild(ctx, buildCtx, build.ImageBuildOptions{
		Tags:        []string{imageRef},
		Remove:      true,
		ForceRemove: true,
		Platform:    "linux/amd64",
	})
	if err != nil {
		return "", fmt.Errorf("docker image build: %w", err)
	}
	err = p.drain(resp.Body, "build")
	resp.Body.Close()
	if err != nil {
		return "", err
	}

	auth, err := registry.EncodeAuthConfig(p.Auth)
	if err != nil {
		return "", fmt.Errorf("encode registry auth: %w", err)
	}
	body, err := p.API.ImagePush(ctx, imageRef, image.PushOptions{RegistryAuth: auth})
	if err != nil {
		return "", fmt.Errorf("docker image push: %w", err)
	}
	defer body.Close()
	if err := p.drain(body, "push"); err != nil {
		return "", err
	}
	return imageRef, nil
}

// drain consumes a daemon message stream and surfaces the first error message.
func (p *Publisher) drain(r io.Reader, op string) error {
	dec := json.NewDecoder(r)
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode %s output: %w", op, err)
		}
		if msg.Error != nil && msg.Error.Message != "" {
			return fmt.Errorf("%w: %s: %s", ErrBuildFailed, op, msg.Error.Message)
		}
		if line := strings.TrimSpace(msg.Stream); line != "" {
			p.Logger.Debug(op, "line", line)
		}
	}
}
