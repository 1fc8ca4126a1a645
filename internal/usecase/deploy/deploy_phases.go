// Where: cli/internal/usecase/deploy/deploy_phases.go
// What: Analyze, plan, generate and provision phases of the workflow.
// Why: Keep each stage's policy next to its collaborator call.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/advisor"
	"github.com/poruru/autodeploy/cli/internal/domain/deployerr"
	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/domain/resource"
	"github.com/poruru/autodeploy/cli/internal/domain/stack"
	"github.com/poruru/autodeploy/cli/internal/infra/fileops"
	"github.com/poruru/autodeploy/cli/internal/infra/templategen"
	"github.com/poruru/autodeploy/cli/internal/provisioner"
)

// DefaultWorkDir receives generated documents when the request names none.
const DefaultWorkDir = "outputs/terraform"

func (w Workflow) analyzePhase(ctx context.Context, req Request) (stack.Descriptor, error) {
	var desc stack.Descriptor
	err := w.track("analyze", func() error {
		root, err := w.checkout(ctx, req.Repository)
		if err != nil {
			return err
		}
		w.ui().Info("Analyzing repository...")
		desc, err = w.Analyzer.Analyze(ctx, root)
		if err != nil {
			return fmt.Errorf("analyze repository: %w", err)
		}
		desc.Root = root
		return nil
	})
	if err != nil {
		return stack.Descriptor{}, err
	}
	w.logger().Info("repository analyzed",
		"candidates", len(desc.Candidates),
		"database", desc.Database,
		"runtime", desc.RuntimeVersion,
		"compose", desc.HasCompose)
	return desc, nil
}

// checkout returns a local path for repository. Existing directories are used in place.
func (w Workflow) checkout(ctx context.Context, repository string) (string, error) {
	isDir := w.IsDir
	if isDir == nil {
		isDir = fileops.DirExists
	}
	if isDir(repository) {
		return repository, nil
	}
	if w.Cloner == nil {
		return "", fmt.Errorf("%w: no source control collaborator for %s", deployerr.ErrConfiguration, repository)
	}
	w.ui().Info("Fetching " + repository + "...")
	path, err := w.Cloner.CloneOrUpdate(ctx, repository)
	if err != nil {
		return "", fmt.Errorf("fetch repository: %w", err)
	}
	return path, nil
}

func (w Workflow) planPhase(ctx context.Context, req Request, desc stack.Descriptor) plan.Plan {
	done := w.Metrics.Track("plan")
	defer done(nil)

	p := Synthesize(ctx, desc, req, w.advisor())
	for _, c := range desc.Candidates {
		if plan.IsSharedLibrary(c.Name) {
			w.ui().Info("Skipping shared library: " + c.Name)
		}
	}
	w.ui().Info(fmt.Sprintf("Planned %d services with the %s strategy", len(p.Services), p.Strategy))

	if w.Memory != nil {
		experiences, err := w.Memory.RelevantExperiences(ctx, p)
		if err != nil {
			w.logger().Warn("could not read deployment memory", "error", err)
		} else if len(experiences) > 0 {
			succeeded := 0
			for _, e := range experiences {
				if e.Success {
					succeeded++
				}
			}
			w.ui().Info(fmt.Sprintf("Found %d similar past deployments (%d successful)", len(experiences), succeeded))
		}
	}
	return p
}

// Synthesize resolves the strategy for req and builds the plan. An empty
// strategy asks the advisor first and falls back to the default profile.
func Synthesize(ctx context.Context, desc stack.Descriptor, req Request, adv advisor.Advisor) plan.Plan {
	name := strings.TrimSpace(req.Strategy)
	if name == "" && adv != nil {
		if advised, ok := adv.Strategy(ctx, desc); ok {
			name = advised
		}
	}
	return plan.Synthesize(desc, plan.Resolve(name), req.Budget).WithRegion(req.Region)
}

// budgetCheck warns when cost exceeds the plan budget. It never blocks.
func (w Workflow) budgetCheck(ctx context.Context, p plan.Plan, cost float64) []string {
	if plan.WithinBudget(p) {
		return nil
	}
	msg := fmt.Sprintf("Estimated cost $%.2f exceeds budget $%.2f", cost, p.Budget)
	w.ui().Warn(msg)
	warnings := []string{msg}
	suggestions, err := w.advisor().CostOptimizations(ctx, p, p.Budget)
	if err != nil {
		w.logger().Debug("cost advice unavailable", "error", err)
		return warnings
	}
	for _, s := range suggestions {
		w.ui().Info("Cost suggestion: " + s)
	}
	return warnings
}

func (w Workflow) generatePhase(req Request, p plan.Plan) (resource.Graph, error) {
	var graph resource.Graph
	err := w.track("generate", func() error {
		target := resource.Target{Project: req.Project, Region: p.Infrastructure.Region, Prefix: req.Prefix}
		g, err := w.Generator.Generate(p, target)
		if err != nil {
			if errors.Is(err, resource.ErrInvalidTarget) {
				return fmt.Errorf("%w: %w", deployerr.ErrConfiguration, err)
			}
			return fmt.Errorf("generate infrastructure: %w", err)
		}
		write := w.WriteDocuments
		if write == nil {
			write = templategen.Write
		}
		dir := workDir(req)
		files, err := write(dir, g, templategen.Options{Backend: req.Backend})
		if err != nil {
			return fmt.Errorf("write infrastructure documents: %w", err)
		}
		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		sort.Strings(names)
		w.ui().Info(fmt.Sprintf("Generated %s in %s (suffix %s)", strings.Join(names, ", "), dir, g.Suffix))
		graph = g
		return nil
	})
	return graph, err
}

func (w Workflow) provisionPhase(ctx context.Context, req Request, g resource.Graph) (deployment.ProvisioningResult, []string, error) {
	if req.Mode != deployment.ModeReal {
		w.ui().Info("Simulating infrastructure provisioning...")
		w.Metrics.ObserveStage("provision", 0, nil)
		return simulatedProvisioning(g), nil, nil
	}
	var report provisioner.Report
	err := w.track("provision", func() error {
		var err error
		report, err = w.Provisioner.Provision(ctx, workDir(req))
		return err
	})
	return report.Result, report.Warnings, err
}

func simulatedProvisioning(g resource.Graph) deployment.ProvisioningResult {
	urls := make(map[string]string, len(g.Services))
	for _, svc := range g.Services {
		urls[svc.PlanName] = fmt.Sprintf("https://%s-simulated.run.app", svc.ServiceName)
	}
	return deployment.ProvisioningResult{
		Success:            true,
		DatabaseConnection: fmt.Sprintf("%s:%s:%s", g.Target.Project, g.Target.Region, g.Database.InstanceName),
		ServiceURLs:        urls,
		Suffix:             g.Suffix,
		RegistryURL:        g.Registry.RepositoryID,
	}
}

func workDir(req Request) string {
	if strings.TrimSpace(req.WorkDir) == "" {
		return DefaultWorkDir
	}
	return req.WorkDir
}
