// Where: cli/internal/servicedeploy/controller.go
// What: Service deployment controller.
// Why: Build, publish and activate each planned service with isolated failures.
package servicedeploy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/domain/resource"
	"github.com/poruru/autodeploy/cli/internal/infra/gcloud"
	"github.com/poruru/autodeploy/cli/internal/infra/ui"
)

// Publisher builds sourcePath and pushes it as imageRef.
type Publisher interface {
	BuildAndPublish(ctx context.Context, sourcePath, imageRef string) (string, error)
}

// Activator activates a revision and returns its public endpoint.
type Activator interface {
	Deploy(ctx context.Context, req gcloud.DeployRequest) (string, error)
}

// Deployer deploys every service of a plan in order.
type Deployer interface {
	DeployAll(ctx context.Context, services []plan.ServiceSpec, target resource.Target, suffix string) []deployment.ServiceRecord
}

// Controller deploys services one at a time, in plan order.
type Controller struct {
	publisher Publisher
	activator Activator
	ui        ui.UserInterface
	logger    *slog.Logger
}

// NewController wires a publisher and an activator.
func NewController(publisher Publisher, activator Activator, out ui.UserInterface, logger *slog.Logger) *Controller {
	if out == nil {
		out = ui.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{publisher: publisher, activator: activator, ui: out, logger: logger.With("component", "servicedeploy")}
}

// DeployAll returns one record per service, in input order. A failing
// service never stops the next one.
func (c *Controller) DeployAll(
	ctx context.Context,
	services []plan.ServiceSpec,
	target resource.Target,
	suffix string,
) []deployment.ServiceRecord {
	records := make([]deployment.ServiceRecord, 0, len(services))
	for i, svc := range services {
		c.ui.Step(i+1, len(services), "Deploying "+svc.Name)
		record := c.deployOne(ctx, svc, target, suffix)
		if record.Status == deployment.StatusFailed {
			c.ui.Warn(fmt.Sprintf("%s failed: %s", svc.Name, record.Error))
			c.logger.Warn("service deployment failed", "service", svc.Name, "error", record.Error)
		} else {
			c.ui.Success(fmt.Sprintf("%s deployed: %s", svc.Name, record.Endpoint))
		}
		records = append(records, record)
	}
	return records
}

func (c *Controller) deployOne(
	ctx context.Context,
	svc plan.ServiceSpec,
	target resource.Target,
	suffix string,
) (record deployment.ServiceRecord) {
	record = deployment.ServiceRecord{Name: svc.Name, Status: deployment.StatusFailed}
	defer func() {
		if r := recover(); r != nil {
			record.Status = deployment.StatusFailed
			record.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		record.Error = err.Error()
		return record
	}

	ref := resource.ImageRef(target, suffix, svc.Name)
	image, err := c.publisher.BuildAndPublish(ctx, svc.SourcePath, ref)
	if err != nil {
		record.Error = fmt.Sprintf("build and publish: %v", err)
		return record
	}
	record.Image = image

	endpoint, err := c.activator.Deploy(ctx, gcloud.DeployRequest{
		Service:      resource.ServiceName(svc.Name, suffix),
		Image:        image,
		Region:       target.Region,
		CPU:          svc.CPU,
		Memory:       svc.Memory,
		Port:         svc.Port,
		MinInstances: svc.MinInstances,
		MaxInstances: svc.MaxInstances,
	})
	if err != nil {
		record.Error = fmt.Sprintf("deploy: %v", err)
		return record
	}
	record.Status = deployment.StatusDeployed
	record.Endpoint = endpoint
	return record
}
