// Where: cli/internal/command/plan.go
// What: Plan command: analyze and synthesize without deploying.
// Why: Let operators review services, sizing and cost before a real run.
package command

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/infra/config"
	"github.com/poruru/autodeploy/cli/internal/infra/fileops"
	"github.com/poruru/autodeploy/cli/internal/infra/ui"
	"github.com/poruru/autodeploy/cli/internal/usecase/deploy"
)

type planView struct {
	Repository    string    `json:"repository" yaml:"repository"`
	Fingerprint   string    `json:"fingerprint" yaml:"fingerprint"`
	EstimatedCost float64   `json:"estimated_monthly_cost" yaml:"estimated_monthly_cost"`
	Skipped       []string  `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Warnings      []string  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Plan          plan.Plan `json:"plan" yaml:"plan"`
}

// runPlan executes the 'plan' command.
func runPlan(cli CLI, deps Dependencies) int {
	out := deps.Out
	flags := cli.Plan

	s, err := openSession(cli, deps)
	if err != nil {
		return exitWithError(out, err)
	}
	stored, err := config.LoadDefaults(config.DefaultsPath(s.projectDir))
	if err != nil {
		stored = config.Defaults{}
	}
	resolver := inputResolver{cfg: s.cfg, stored: stored, isDir: fileops.DirExists}
	repository, err := normalizeRepository(flags.Repository, resolver.isDir)
	if err != nil {
		return exitWithError(out, err)
	}
	strategy, err := resolver.strategy(flags.Strategy)
	if err != nil {
		return exitWithError(out, err)
	}

	// Progress goes to stderr so structured output stays parseable.
	progress := deps.ErrOut
	if flags.Output == "table" {
		progress = out
	}
	runtime, err := buildRuntime(deps.Context, deps, s, ui.NewDeployUI(progress, false))
	if err != nil {
		return exitWithError(out, err)
	}
	defer runtime.close(s.logger)

	preview, err := runtime.Workflow.Preview(deps.Context, deploy.Request{
		Repository: repository,
		Region:     resolver.region(flags.Region),
		Strategy:   strategy,
		Budget:     resolver.budget(flags.Budget),
	})
	if err != nil {
		return exitWithError(out, err)
	}

	view := planView{
		Repository:    repository,
		Fingerprint:   preview.Fingerprint,
		EstimatedCost: preview.Cost,
		Skipped:       preview.Skipped,
		Warnings:      preview.Warnings,
		Plan:          preview.Plan,
	}
	if err := renderPlan(out, flags.Output, view); err != nil {
		return exitWithError(out, err)
	}
	return 0
}

func renderPlan(out io.Writer, format string, view planView) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		return nil
	default:
		return renderPlanTable(out, view)
	}
}

func renderPlanTable(out io.Writer, view planView) error {
	p := view.Plan
	console := ui.NewWithEmoji(out, false)
	console.BlockStart("", "Deployment plan")
	console.Item("Repository", view.Repository)
	console.Item("Strategy", p.Strategy)
	console.Item("Region", p.Infrastructure.Region)
	console.Item("Database", fmt.Sprintf("%s (%s, ha=%t)", p.Database.Kind, p.Database.Tier, p.Database.HighAvailability))
	console.Item("Estimated monthly cost", fmt.Sprintf("$%.2f", view.EstimatedCost))
	console.Item("Budget", fmt.Sprintf("$%.2f", p.Budget))
	console.Item("Fingerprint", view.Fingerprint)
	console.BlockEnd()

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tCPU\tMEMORY\tMIN\tMAX\tPORT\tSOURCE")
	for _, svc := range p.Services {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			svc.Name, svc.CPU, svc.Memory, svc.MinInstances, svc.MaxInstances, svc.Port, svc.SourcePath)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("render plan: %w", err)
	}

	if len(view.Skipped) > 0 {
		console.Info("Skipped shared libraries: " + strings.Join(view.Skipped, ", "))
	}
	for _, w := range view.Warnings {
		console.Warn(w)
	}
	return nil
}
