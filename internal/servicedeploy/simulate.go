// Where: cli/internal/servicedeploy/simulate.go
// What: Simulated service deployment.
// Why: Report plausible endpoints without building or calling the cloud.
package servicedeploy

import (
	"context"
	"fmt"

	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/domain/resource"
	"github.com/poruru/autodeploy/cli/internal/infra/ui"
)

// Simulator marks every service deployed with a synthetic endpoint.
type Simulator struct {
	UI ui.UserInterface
}

// SimulatedEndpoint is the endpoint reported for a simulated service.
func SimulatedEndpoint(name, suffix string) string {
	return fmt.Sprintf("https://%s-simulated.run.app", resource.ServiceName(name, suffix))
}

func (s Simulator) DeployAll(
	_ context.Context,
	services []plan.ServiceSpec,
	target resource.Target,
	suffix string,
) []deployment.ServiceRecord {
	out := s.UI
	if out == nil {
		out = ui.Discard
	}
	records := make([]deployment.ServiceRecord, 0, len(services))
	for i, svc := range services {
		out.Step(i+1, len(services), "Simulating "+svc.Name)
		records = append(records, deployment.ServiceRecord{
			Name:     svc.Name,
			Status:   deployment.StatusDeployed,
			Endpoint: SimulatedEndpoint(svc.Name, suffix),
			Image:    resource.ImageRef(target, suffix, svc.Name),
		})
	}
	return records
}
