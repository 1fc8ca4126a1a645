package dockerbuild

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poruru/autodeploy/cli/internal/infra/logging"
)

type fakeDocker struct {
	buildStream string
	pushStream  string
	buildTags   []string
	pushed      []string
	pushAuth    string
}

func (f *fakeDocker) ImageBuild(_ context.Context, ctxReader io.Reader, opts build.ImageBuildOptions) (build.ImageBuildResponse, error) {
	_, _ = io.Copy(io.Discard, ctxReader)
	f.buildTags = append(f.buildTags, opts.Tags...)
	return build.ImageBuildResponse{Body: io.NopCloser(strings.NewReader(f.buildStream))}, nil
}

func (f *fakeDocker) ImagePush(_ context.Context, ref string, opts image.PushOptions) (io.ReadCloser, error) {
	f.pushed = append(f.pushed, ref)
	f.pushAuth = opts.RegistryAuth
	return io.NopCloser(strings.NewReader(f.pushStream)), nil
}

func sourceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o644))
	return dir
}

func TestBuildAndPublish(t *testing.T) {
	api := &fakeDocker{
		buildStream: `{"stream":"Step 1/1 : FROM scratch\n"}` + "\n" + `{"stream":"Successfully built abc\n"}`,
		pushStream:  `{"status":"Pushed"}`,
	}
	ref, err := New(api, logging.Discard()).BuildAndPublish(context.Background(), sourceDir(t), "reg/app:latest")
	require.NoError(t, err)
	assert.Equal(t, "reg/app:latest", ref)
	assert.Equal(t, []string{"reg/app:latest"}, api.buildTags)
	assert.Equal(t, []string{"reg/app:latest"}, api.pushed)
	assert.NotEmpty(t, api.pushAuth)
}

func TestBuildAndPublishBuildError(t *testing.T) {
	api := &fakeDocker{buildStream: `{"errorDetail":{"message":"missing base image"},"error":"missing base image"}`}
	_, err := New(api, logging.Discard()).BuildAndPublish(context.Background(), sourceDir(t), "reg/app:latest")
	require.ErrorIs(t, err, ErrBuildFailed)
	assert.Contains(t, err.Error(), "missing base image")
	assert.Empty(t, api.pushed)
}

func TestBuildAndPublishPushError(t *testing.T) {
	api := &fakeDocker{pushStream: `{"errorDetail":{"message":"denied"},"error":"denied"}`}
	_, err := New(api, logging.Discard()).BuildAndPublish(context.Background(), sourceDir(t), "reg/app:latest")
	require.ErrorIs(t, err, ErrBuildFailed)
	assert.Contains(t, err.Error(), "push")
}

func TestBuildAndPublishRejectsEmptyInputs(t *testing.T) {
	p := New(&fakeDocker{}, logging.Discard())
	_, err := p.BuildAndPublish(context.Background(), "", "reg/app")
	require.Error(t, err)
	_, err = p.BuildAndPublish(context.Background(), t.TempDir(), " ")
	require.Error(t, err)
}
