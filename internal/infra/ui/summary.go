// Where: cli/internal/infra/ui/summary.go
// What: Human-readable rendering of a deployment result.
// Why: The command surface prints per-service status and the cost estimate.
package ui

import (
	"fmt"

	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
)

// PrintResult renders res to the console.
func PrintResult(c *Console, res deployment.Result) {
	if res.Success {
		c.BlockStart("🚀", "Deployment complete")
	} else {
		c.BlockStart("💥", "Deployment failed")
	}
	if res.DeploymentID != "" {
		c.Item("Deployment ID", res.DeploymentID)
	}
	if res.Mode != "" {
		c.Item("Mode", res.Mode)
	}
	if res.Suffix != "" {
		c.Item("Suffix", res.Suffix)
	}
	c.Item("Estimated monthly cost", fmt.Sprintf("$%.2f", res.CostEstimate))
	if res.Database.Connection != "" {
		c.Item("Database", res.Database.Connection)
	}
	if res.Monitoring.Enabled {
		c.Item("Monitoring", fmt.Sprintf("enabled (%d services)", res.Monitoring.ServicesMonitored))
	} else if res.Monitoring.Error != "" {
		c.Item("Monitoring", "disabled: "+res.Monitoring.Error)
	}
	c.BlockEnd()

	if len(res.Services) > 0 {
		c.Header("📦", "Services")
		for _, svc := range res.Services {
			switch svc.Status {
			case deployment.StatusDeployed:
				c.Success(fmt.Sprintf("%s %s", svc.Name, svc.Endpoint))
			default:
				c.Fail(fmt.Sprintf("%s %s", svc.Name, svc.Error))
			}
		}
		c.BlockEnd()
	}

	for _, w := range res.Warnings {
		c.Warn(w)
	}
	if res.Error != "" {
		c.Fail(res.Error)
	}
	if res.Suggestion != "" {
		c.Item("Suggestion", res.Suggestion)
	}
}
