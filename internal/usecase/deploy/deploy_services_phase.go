// Where: cli/internal/usecase/deploy/deploy_services_phase.go
// What: Service deployment, monitoring and memory phases.
// Why: Degrade best-effort stages instead of failing the run.
package deploy

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/domain/resource"
	"github.com/poruru/autodeploy/cli/internal/servicedeploy"
)

// withSourceRoot resolves each service's source path against the checkout
// root so builds do not depend on the process working directory.
func withSourceRoot(services []plan.ServiceSpec, root string) []plan.ServiceSpec {
	out := make([]plan.ServiceSpec, len(services))
	for i, svc := range services {
		if root != "" && !filepath.IsAbs(svc.SourcePath) {
			svc.SourcePath = filepath.Join(root, filepath.FromSlash(svc.SourcePath))
		}
		out[i] = svc
	}
	return out
}

func (w Workflow) servicesPhase(ctx context.Context, req Request, services []plan.ServiceSpec, g resource.Graph) []deployment.ServiceRecord {
	deployer := w.Simulator
	if deployer == nil {
		deployer = servicedeploy.Simulator{UI: w.ui()}
	}
	if req.Mode == deployment.ModeReal {
		deployer = w.Services
	}
	w.ui().Info(fmt.Sprintf("Deploying %d services...", len(services)))
	done := w.Metrics.Track("services")
	records := deployer.DeployAll(ctx, services, g.Target, g.Suffix)
	var err error
	for _, r := range records {
		if r.Status == deployment.StatusFailed {
			err = fmt.Errorf("service %s failed", r.Name)
			break
		}
	}
	done(err)
	return records
}

func (w Workflow) monitoringPhase(ctx context.Context, req Request, p plan.Plan, records []deployment.ServiceRecord) deployment.MonitoringResult {
	deployed := 0
	for _, r := range records {
		if r.Status == deployment.StatusDeployed {
			deployed++
		}
	}
	enabled := deployment.MonitoringResult{
		Enabled:           true,
		Alerts:            p.Monitoring.Alerts,
		Logging:           p.Monitoring.Logging,
		ServicesMonitored: deployed,
	}
	if req.Mode != deployment.ModeReal {
		return enabled
	}
	if w.ControlPlane == nil {
		return deployment.MonitoringResult{Enabled: false, Error: "control plane is not configured"}
	}
	err := w.track("monitoring", func() error {
		return w.ControlPlane.EnableCapability(ctx, MonitoringCapability)
	})
	if err != nil {
		w.ui().Warn(fmt.Sprintf("monitoring setup failed: %v", err))
		return deployment.MonitoringResult{Enabled: false, Error: err.Error()}
	}
	w.ui().Success("Monitoring enabled")
	return enabled
}

func (w Workflow) recordDeployment(ctx context.Context, id string, req Request, p plan.Plan, result *deployment.Result) {
	if w.Memory == nil {
		return
	}
	if err := w.Memory.RecordDeployment(ctx, id, req.Intent(), p, *result); err != nil {
		msg := fmt.Sprintf("could not record deployment: %v", err)
		w.logger().Warn("memory record failed", "error", err)
		result.Warnings = append(result.Warnings, msg)
	}
}
