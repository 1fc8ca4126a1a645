// Where: cli/cmd/autodeploy/cli.go
// What: CLI dependency wiring helpers.
// Why: Centralize construction of concrete adapters for testability.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/registry"

	"github.com/poruru/autodeploy/cli/internal/advisor"
	"github.com/poruru/autodeploy/cli/internal/command"
	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	"github.com/poruru/autodeploy/cli/internal/domain/resource"
	"github.com/poruru/autodeploy/cli/internal/infra/analyzer"
	"github.com/poruru/autodeploy/cli/internal/infra/awsclient"
	"github.com/poruru/autodeploy/cli/internal/infra/config"
	"github.com/poruru/autodeploy/cli/internal/infra/dockerbuild"
	"github.com/poruru/autodeploy/cli/internal/infra/gcloud"
	"github.com/poruru/autodeploy/cli/internal/infra/git"
	"github.com/poruru/autodeploy/cli/internal/infra/interaction"
	"github.com/poruru/autodeploy/cli/internal/infra/memstore"
	"github.com/poruru/autodeploy/cli/internal/infra/metrics"
	"github.com/poruru/autodeploy/cli/internal/infra/runner"
	"github.com/poruru/autodeploy/cli/internal/infra/terraform"
	"github.com/poruru/autodeploy/cli/internal/memory"
	"github.com/poruru/autodeploy/cli/internal/provisioner"
	"github.com/poruru/autodeploy/cli/internal/servicedeploy"
	"github.com/poruru/autodeploy/cli/internal/usecase/deploy"
)

const (
	envGitToken      = "GITHUB_TOKEN"
	envRegistryToken = "AUTODEPLOY_REGISTRY_TOKEN"
	envPrompt        = "AUTODEPLOY_PROMPT"

	// registryTokenUser is the username Artifact Registry expects with an access token.
	registryTokenUser = "oauth2accesstoken"
)

var (
	newDockerAPI = func() (dockerbuild.DockerAPI, io.Closer, error) {
		cli, err := dockerbuild.NewClient()
		if err != nil {
			return nil, nil, err
		}
		return cli, cli, nil
	}
	newStateBackend = func(ctx context.Context, cfg config.StateConfig, out io.Writer) (provisioner.Bootstrapper, error) {
		return provisioner.NewStateBackend(ctx, cfg.Bucket, cfg.LockTable, awsclient.Options{Region: cfg.Region, Endpoint: cfg.Endpoint}, out)
	}
	newObjectStore = func(ctx context.Context, cfg config.MemoryConfig) (memory.Store, error) {
		return memstore.NewObjectStore(ctx, cfg.Bucket, cfg.Key, awsclient.Options{Region: cfg.Region, Endpoint: cfg.Endpoint})
	}
)

// buildDependencies constructs the command dependencies. Concrete adapters
// are created lazily by newRuntime once configuration is loaded.
func buildDependencies(ctx context.Context) command.Dependencies {
	return command.Dependencies{
		Context:  ctx,
		Out:      os.Stdout,
		ErrOut:   os.Stderr,
		Prompter: newPrompter(os.Getenv(envPrompt)),
		Getwd:    os.Getwd,
		Runtime:  newRuntime,
	}
}

func newPrompter(kind string) interaction.Prompter {
	if strings.EqualFold(strings.TrimSpace(kind), "line") {
		return interaction.LinePrompter{In: os.Stdin, Out: os.Stderr}
	}
	return interaction.HuhPrompter{}
}

// newRuntime wires the pipeline collaborators for cfg.
func newRuntime(ctx context.Context, cfg config.Config, env command.RuntimeEnv) (command.Runtime, error) {
	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	realMode := cfg.Deploy.Mode == string(deployment.ModeReal)
	exec := runner.ExecRunner{}
	plane := gcloud.New(exec, gcloud.DefaultBinary, cfg.GCP.Project, logger)

	var closers []io.Closer
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}

	var backend provisioner.Bootstrapper
	if realMode && cfg.RemoteState() {
		b, err := newStateBackend(ctx, cfg.State, os.Stderr)
		if err != nil {
			return command.Runtime{}, fmt.Errorf("state backend: %w", err)
		}
		backend = b
	}

	var publisher servicedeploy.Publisher = plane
	if realMode && cfg.Deploy.Builder == "docker" {
		api, closer, err := newDockerAPI()
		if err != nil {
			return command.Runtime{}, fmt.Errorf("docker client: %w", err)
		}
		if closer != nil {
			closers = append(closers, closer)
		}
		pub := dockerbuild.New(api, logger)
		if token := strings.TrimSpace(os.Getenv(envRegistryToken)); token != "" {
			pub.Auth = registry.AuthConfig{Username: registryTokenUser, Password: token}
		}
		publisher = pub
	}

	store, err := memoryStore(ctx, cfg.Memory, env.ProjectDir)
	if err != nil {
		_ = closeAll()
		return command.Runtime{}, fmt.Errorf("memory store: %w", err)
	}
	mem := memory.New(store, logger)
	recorder := metrics.NewRecorder()

	workflow := deploy.Workflow{
		Cloner:        git.NewCloner(resolvePath(env.ProjectDir, cfg.Workspace.Root), os.Getenv(envGitToken), logger),
		Analyzer:      analyzer.New(logger),
		ControlPlane:  plane,
		Generator:     resource.NewGenerator(),
		Provisioner:   provisioner.NewController(terraform.NewEngine(exec, terraform.DefaultBinary, logger), backend, env.UI, logger),
		Services:      servicedeploy.NewController(publisher, plane, env.UI, logger),
		Simulator:     servicedeploy.Simulator{UI: env.UI},
		Memory:        mem,
		Advisor:       newAdvisor(cfg.Advisor, logger),
		Metrics:       recorder,
		UserInterface: env.UI,
		Logger:        logger,
	}
	return command.Runtime{
		Workflow: workflow,
		History:  mem,
		Metrics:  recorder,
		Close:    closeAll,
	}, nil
}

func memoryStore(ctx context.Context, cfg config.MemoryConfig, projectDir string) (memory.Store, error) {
	switch cfg.Backend {
	case "", "file":
		return memstore.NewFileStore(resolvePath(projectDir, cfg.Path)), nil
	case "s3":
		return newObjectStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.Backend)
	}
}

func newAdvisor(cfg config.AdvisorConfig, logger *slog.Logger) advisor.Advisor {
	if strings.EqualFold(cfg.Provider, "ollama") {
		return advisor.NewOllama(cfg.URL, cfg.Model, cfg.Timeout, logger)
	}
	return advisor.Null{}
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}
