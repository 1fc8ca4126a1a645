// Where: cli/internal/usecase/deploy/deploy_preview.go
// What: Analyze and plan without generating, provisioning or recording.
// Why: The plan command shows what a deployment would create.
package deploy

import (
	"context"
	"fmt"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/domain/deployerr"
	domainmemory "github.com/poruru/autodeploy/cli/internal/domain/memory"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/domain/stack"
)

// Preview is the outcome of the analyze and plan stages.
type Preview struct {
	Descriptor  stack.Descriptor
	Plan        plan.Plan
	Cost        float64
	Fingerprint string
	Skipped     []string
	Warnings    []string
}

// Preview analyzes req.Repository and synthesizes its plan. Nothing is
// generated, provisioned or recorded.
func (w Workflow) Preview(ctx context.Context, req Request) (Preview, error) {
	if strings.TrimSpace(req.Repository) == "" {
		return Preview{}, fmt.Errorf("%w: %w", deployerr.ErrConfiguration, errRepositoryRequired)
	}
	desc, err := w.analyzePhase(ctx, req)
	if err != nil {
		return Preview{}, err
	}
	p := Synthesize(ctx, desc, req, w.advisor())
	cost := plan.EstimateCost(p)

	var skipped []string
	for _, c := range desc.Candidates {
		if plan.IsSharedLibrary(c.Name) {
			skipped = append(skipped, c.Name)
		}
	}
	var warnings []string
	if !desc.HasContainerMarker() {
		warnings = append(warnings, "no container definitions found; real deployments will be refused")
	}
	if len(p.Services) == 0 {
		warnings = append(warnings, "no deployable services found in repository")
	}
	if !plan.WithinBudget(p) {
		warnings = append(warnings, fmt.Sprintf("estimated cost $%.2f exceeds budget $%.2f", cost, p.Budget))
	}
	return Preview{
		Descriptor:  desc,
		Plan:        p,
		Cost:        cost,
		Fingerprint: domainmemory.Fingerprint(p),
		Skipped:     skipped,
		Warnings:    warnings,
	}, nil
}
