package provisioner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poruru/autodeploy/cli/internal/domain/deployerr"
	"github.com/poruru/autodeploy/cli/internal/domain/provision"
	"github.com/poruru/autodeploy/cli/internal/infra/logging"
	"github.com/poruru/autodeploy/cli/internal/infra/runner/runnertest"
	"github.com/poruru/autodeploy/cli/internal/infra/terraform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const outputsJSON = `{
  "database_connection": {"value": "demo:us-central1:shop-postgres-abc123"},
  "database_private_ip": {"value": "10.1.0.3"},
  "artifact_registry_url": {"value": "shop-repo-abc123"},
  "random_suffix": {"value": "abc123"},
  "service_urls": {"value": {"api": "https://api-abc123.run.app"}}
}`

func newController(fake *runnertest.Fake, backend Bootstrapper) *Controller {
	engine := terraform.NewEngine(fake, "", logging.Discard())
	return NewController(engine, backend, nil, logging.Discard())
}

func seed(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
}

func TestProvisionHappyPath(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, "terraform.tfstate", ".terraform.lock.hcl", "main.tf")
	fake := (&runnertest.Fake{}).
		On("terraform plan", runnertest.Response{ExitCode: 2}).
		On("terraform output", runnertest.Response{Stdout: outputsJSON})

	report, err := newController(fake, nil).Provision(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []provision.State{
		provision.StateClean,
		provision.StateInitialized,
		provision.StateValidated,
		provision.StatePlanComputed,
		provision.StateApplied,
		provision.StateOutputsExtracted,
	}, report.States)
	assert.Equal(t, terraform.PlanChangesPending, report.Plan)
	assert.True(t, report.Result.Success)
	assert.Equal(t, "abc123", report.Result.Suffix)
	assert.Equal(t, "10.1.0.3", report.Result.DatabasePrivateIP)
	assert.Equal(t, map[string]string{"api": "https://api-abc123.run.app"}, report.Result.ServiceURLs)

	assert.NoFileExists(t, filepath.Join(dir, "terraform.tfstate"))
	assert.FileExists(t, filepath.Join(dir, ".terraform.lock.hcl"), "lock file survives when init succeeds")
	assert.FileExists(t, filepath.Join(dir, "main.tf"))
	assert.Equal(t, 1, fake.Count("terraform init"))
}

func TestProvisionRetriesInitOnceAfterForceClean(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, ".terraform.lock.hcl")
	fake := (&runnertest.Fake{}).
		On("terraform init",
			runnertest.Response{ExitCode: 1, Stderr: "provider mismatch"},
			runnertest.Response{}).
		On("terraform output", runnertest.Response{Stdout: outputsJSON})

	report, err := newController(fake, nil).Provision(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, report.Result.Success)
	assert.Equal(t, 2, fake.Count("terraform init"))
	assert.NoFileExists(t, filepath.Join(dir, ".terraform.lock.hcl"))
}

func TestProvisionInitFailsTwice(t *testing.T) {
	fake := (&runnertest.Fake{}).On("terraform init", runnertest.Response{ExitCode: 1, Stderr: "backend unreachable"})

	report, err := newController(fake, nil).Provision(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, deployerr.ErrProvisioning)
	assert.Contains(t, err.Error(), "backend unreachable")
	assert.Equal(t, 2, fake.Count("terraform init"))
	assert.Equal(t, 0, fake.Count("terraform plan"))
	assert.Equal(t, []provision.State{provision.StateClean, provision.StateFailed}, report.States)
	assert.False(t, report.Result.Success)
}

func TestProvisionValidateFailureIsAdvisory(t *testing.T) {
	fake := (&runnertest.Fake{}).
		On("terraform validate", runnertest.Response{ExitCode: 1, Stderr: "deprecated attribute"}).
		On("terraform output", runnertest.Response{Stdout: outputsJSON})

	report, err := newController(fake, nil).Provision(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "deprecated attribute")
	assert.Equal(t, 1, fake.Count("terraform apply"))
}

func TestProvisionPlanErrorFails(t *testing.T) {
	fake := (&runnertest.Fake{}).On("terraform plan", runnertest.Response{ExitCode: 1})

	report, err := newController(fake, nil).Provision(context.Background(), t.TempDir())
	require.ErrorIs(t, err, deployerr.ErrProvisioning)
	assert.Equal(t, 0, fake.Count("terraform apply"))
	assert.Equal(t, provision.StateFailed, report.States[len(report.States)-1])
}

func TestProvisionApplyFailureHasNoRollback(t *testing.T) {
	fake := (&runnertest.Fake{}).On("terraform apply", runnertest.Response{ExitCode: 1, Stderr: "quota exceeded"})

	_, err := newController(fake, nil).Provision(context.Background(), t.TempDir())
	require.ErrorIs(t, err, deployerr.ErrProvisioning)
	assert.Equal(t, 0, fake.Count("terraform destroy"))
	assert.Equal(t, deployerr.CodeQuota, deployerr.Classify(err))
}

func TestProvisionOutputFailureDegradesToUnknown(t *testing.T) {
	fake := (&runnertest.Fake{}).On("terraform output", runnertest.Response{Stdout: "garbage"})

	report, err := newController(fake, nil).Provision(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.True(t, report.Result.Success)
	assert.Equal(t, Unknown, report.Result.DatabaseConnection)
	assert.Equal(t, Unknown, report.Result.Suffix)
	assert.Empty(t, report.Result.ServiceURLs)
	assert.NotNil(t, report.Result.ServiceURLs)
	assert.Len(t, report.Warnings, 1)
}

type fakeBootstrapper struct {
	err   error
	calls int
}

func (f *fakeBootstrapper) Ensure(context.Context) error {
	f.calls++
	return f.err
}

func TestProvisionBootstrapsBackendBeforeInit(t *testing.T) {
	fake := (&runnertest.Fake{}).On("terraform output", runnertest.Response{Stdout: outputsJSON})
	backend := &fakeBootstrapper{}
	_, err := newController(fake, backend).Provision(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 1, backend.calls)

	fake = &runnertest.Fake{}
	backend = &fakeBootstrapper{err: errors.New("access denied")}
	_, err = newController(fake, backend).Provision(context.Background(), t.TempDir())
	require.ErrorIs(t, err, deployerr.ErrProvisioning)
	assert.Equal(t, 0, fake.Count("terraform init"))
}
