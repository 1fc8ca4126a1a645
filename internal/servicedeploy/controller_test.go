package servicedeploy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/domain/resource"
	"github.com/poruru/autodeploy/cli/internal/infra/gcloud"
	"github.com/poruru/autodeploy/cli/internal/infra/logging"
	"github.com/poruru/autodeploy/cli/internal/infra/runner/runnertest"
	"github.com/poruru/autodeploy/cli/internal/infra/ui"
)

type fakePublisher struct {
	fail  map[string]error
	panic string
	refs  []string
}

func (f *fakePublisher) BuildAndPublish(_ context.Context, source, ref string) (string, error) {
	if source == f.panic {
		panic("unexpected nil")
	}
	f.refs = append(f.refs, ref)
	if err := f.fail[source]; err != nil {
		return "", err
	}
	return ref, nil
}

type fakeActivator struct {
	requests []gcloud.DeployRequest
}

func (f *fakeActivator) Deploy(_ context.Context, req gcloud.DeployRequest) (string, error) {
	f.requests = append(f.requests, req)
	return "https://" + req.Service + ".run.app", nil
}

var target = resource.Target{Project: "demo", Region: "us-central1", Prefix: "shop"}

func services() []plan.ServiceSpec {
	return []plan.ServiceSpec{
		{Name: "a", SourcePath: "/src/a", CPU: "1", Memory: "1Gi", MaxInstances: 5, Port: 8080},
		{Name: "b", SourcePath: "/src/b", CPU: "1", Memory: "1Gi", MaxInstances: 5, Port: 8080},
	}
}

func TestDeployAllIsolatesFailures(t *testing.T) {
	pub := &fakePublisher{fail: map[string]error{"/src/a": errors.New("build failed: missing Dockerfile")}}
	act := &fakeActivator{}
	records := NewController(pub, act, ui.Discard, logging.Discard()).DeployAll(context.Background(), services(), target, "x1y2z3")

	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].Name)
	assert.Equal(t, deployment.StatusFailed, records[0].Status)
	assert.Contains(t, records[0].Error, "missing Dockerfile")
	assert.Equal(t, "b", records[1].Name)
	assert.Equal(t, deployment.StatusDeployed, records[1].Status)
	assert.Equal(t, "https://b-x1y2z3.run.app", records[1].Endpoint)

	require.Len(t, act.requests, 1)
	req := act.requests[0]
	assert.Equal(t, "b-x1y2z3", req.Service)
	assert.Equal(t, "us-central1-docker.pkg.dev/demo/shop-repo-x1y2z3/b:latest", req.Image)
	assert.Equal(t, 5, req.MaxInstances)
}

func TestDeployAllRecoversPanics(t *testing.T) {
	pub := &fakePublisher{panic: "/src/a"}
	records := NewController(pub, &fakeActivator{}, nil, nil).DeployAll(context.Background(), services(), target, "sfx001")
	require.Len(t, records, 2)
	assert.Equal(t, deployment.StatusFailed, records[0].Status)
	assert.Contains(t, records[0].Error, "panic")
	assert.Equal(t, deployment.StatusDeployed, records[1].Status)
}

func TestDeployAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub := &fakePublisher{}
	records := NewController(pub, &fakeActivator{}, nil, nil).DeployAll(ctx, services(), target, "sfx001")
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, deployment.StatusFailed, r.Status)
	}
	assert.Empty(t, pub.refs)
}

func TestDeployAllWithGcloud(t *testing.T) {
	fake := (&runnertest.Fake{}).
		On("gcloud builds submit", runnertest.Response{ExitCode: 1, Stderr: "Dockerfile not found"}, runnertest.Response{}).
		On("gcloud run services describe", runnertest.Response{Stdout: "https://b-sfx001-uc.a.run.app\n"})
	plane := gcloud.New(fake, "", "demo", logging.Discard())

	records := NewController(plane, plane, nil, logging.Discard()).DeployAll(context.Background(), services(), target, "sfx001")
	require.Len(t, records, 2)
	assert.Equal(t, deployment.StatusFailed, records[0].Status)
	assert.Contains(t, records[0].Error, "Dockerfile not found")
	assert.Equal(t, "https://b-sfx001-uc.a.run.app", records[1].Endpoint)
	assert.Equal(t, 0, fake.Count("gcloud run deploy a-sfx001"))
	assert.Equal(t, 1, fake.Count("gcloud run deploy b-sfx001"))
}

func TestSimulator(t *testing.T) {
	records := Simulator{}.DeployAll(context.Background(), services(), target, "abc123")
	require.Len(t, records, 2)
	assert.Equal(t, "https://a-abc123-simulated.run.app", records[0].Endpoint)
	assert.Equal(t, deployment.StatusDeployed, records[1].Status)
}
