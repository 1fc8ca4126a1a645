// Where: cli/internal/infra/gcloud/gcloud.go
// What: Cloud control-plane collaborator over the gcloud binary.
// Why: Identity checks, API enablement, image builds and service activation.
package gcloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/infra/runner"
)

// DefaultBinary is resolved from PATH.
const DefaultBinary = "gcloud"

// ErrCommandFailed wraps every non-success gcloud exit.
var ErrCommandFailed = errors.New("gcloud command failed")

// DeployRequest describes one service revision.
type DeployRequest struct {
	Service      string
	Image        string
	Region       string
	CPU          string
	Memory       string
	Port         int
	MinInstances int
	MaxInstances int
}

// ControlPlane runs gcloud against one project.
type ControlPlane struct {
	runner  runner.CommandRunner
	binary  string
	project string
	logger  *slog.Logger
}

// New returns a ControlPlane. An empty binary uses DefaultBinary.
func New(r runner.CommandRunner, binary, project string, logger *slog.Logger) *ControlPlane {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlPlane{runner: r, binary: binary, project: project, logger: logger.With("component", "gcloud")}
}

// ActiveIdentities lists accounts with an active credential.
func (c *ControlPlane) ActiveIdentities(ctx context.Context) ([]string, error) {
	res, err := c.run(ctx, "auth", "list", "--filter=status:ACTIVE", "--format=value(account)")
	if err != nil {
		return nil, err
	}
	var accounts []string
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		if account := strings.TrimSpace(line); account != "" {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

// ActivateServiceAccount activates the key file as the current identity.
func (c *ControlPlane) ActivateServiceAccount(ctx context.Context, keyFile string) error {
	_, err := c.run(ctx, "auth", "activate-service-account", "--key-file="+keyFile)
	return err
}

// EnableCapability enables one API. "already enabled" responses count as success.
func (c *ControlPlane) EnableCapability(ctx context.Context, id string) error {
	res, err := c.runner.RunCapture(ctx, "", c.binary, "services", "enable", id, "--project="+c.project, "--quiet")
	if err == nil {
		return nil
	}
	combined := strings.ToLower(string(res.Stdout) + string(res.Stderr))
	if strings.Contains(combined, "already enabled") {
		c.logger.Debug("capability already enabled", "id", id)
		return nil
	}
	return c.failure("services enable "+id, res, err)
}

// BuildAndPublish builds sourcePath remotely and pushes it as imageRef.
func (c *ControlPlane) BuildAndPublish(ctx context.Context, sourcePath, imageRef string) (string, error) {
	if _, err := c.run(ctx, "builds", "submit", "--tag="+imageRef, "--project="+c.project, sourcePath); err != nil {
		return "", err
	}
	return imageRef, nil
}

// Deploy activates a publicly reachable revision and returns its endpoint.
func (c *ControlPlane) Deploy(ctx context.Context, req DeployRequest) (string, error) {
	args := []string{
		"run", "deploy", req.Service,
		"--image=" + req.Image,
		"--region=" + req.Region,
		"--project=" + c.project,
		"--allow-unauthenticated",
		"--platform=managed",
		"--memory=" + req.Memory,
		"--cpu=" + req.CPU,
		"--max-instances=" + strconv.Itoa(req.MaxInstances),
		"--min-instances=" + strconv.Itoa(req.MinInstances),
	}
	if req.Port > 0 {
		args = append(args, "--port="+strconv.Itoa(req.Port))
	}
	args = append(args, "--quiet")
	if _, err := c.run(ctx, args...); err != nil {
		return "", err
	}
	return c.Describe(ctx, req.Service, req.Region)
}

// Describe resolves the public endpoint of a service.
func (c *ControlPlane) Describe(ctx context.Context, service, region string) (string, error) {
	res, err := c.run(ctx, "run", "services", "describe", service,
		"--region="+region, "--project="+c.project, "--format=value(status.url)")
	if err != nil {
		return "", err
	}
	url := strings.TrimSpace(string(res.Stdout))
	if url == "" {
		return "", fmt.Errorf("%w: service %s has no url", ErrCommandFailed, service)
	}
	return url, nil
}

func (c *ControlPlane) run(ctx context.Context, args ...string) (runner.Result, error) {
	c.logger.Debug("gcloud", "args", args)
	res, err := c.runner.RunCapture(ctx, "", c.binary, args...)
	if err != nil {
		return res, c.failure(strings.Join(args[:min(2, len(args))], " "), res, err)
	}
	return res, nil
}

func (c *ControlPlane) failure(op string, res runner.Result, err error) error {
	detail := strings.TrimSpace(string(res.Stderr))
	c.logger.Debug("gcloud failed", "op", op, "stderr", detail)
	if detail == "" {
		return fmt.Errorf("%w: %s: %v", ErrCommandFailed, op, err)
	}
	return fmt.Errorf("%w: %s: %v: %s", ErrCommandFailed, op, err, detail)
}
