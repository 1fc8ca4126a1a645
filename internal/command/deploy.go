// Where: cli/internal/command/deploy.go
// What: Deploy command entry and workflow execution.
// Why: Keep deploy command orchestration separate from input/detail helpers.
package command

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/infra/config"
	"github.com/poruru/autodeploy/cli/internal/infra/fileops"
	"github.com/poruru/autodeploy/cli/internal/infra/interaction"
	"github.com/poruru/autodeploy/cli/internal/infra/metrics"
	"github.com/poruru/autodeploy/cli/internal/infra/templategen"
	"github.com/poruru/autodeploy/cli/internal/infra/ui"
	"github.com/poruru/autodeploy/cli/internal/usecase/deploy"
)

// runDeploy executes the 'deploy' command.
func runDeploy(cli CLI, deps Dependencies) int {
	out := deps.Out
	emojiEnabled, err := resolveEmojiEnabled(out, cli.Deploy.Emoji, cli.Deploy.NoEmoji)
	if err != nil {
		return exitWithError(out, err)
	}

	s, err := openSession(cli, deps)
	if err != nil {
		return exitWithError(out, err)
	}

	defaultsPath := config.DefaultsPath(s.projectDir)
	stored, err := config.LoadDefaults(defaultsPath)
	if err != nil {
		s.logger.Warn("ignoring stored defaults", "path", defaultsPath, "error", err)
		stored = config.Defaults{Version: 1}
	}

	tty := isTTY(deps)
	resolver := inputResolver{cfg: s.cfg, stored: stored, prompter: deps.Prompter, tty: tty, isDir: fileops.DirExists}
	inputs, err := resolver.resolveDeploy(cli.Deploy)
	if err != nil {
		return exitWithError(out, err)
	}
	s.cfg.Deploy.Builder = inputs.Builder
	s.cfg.Deploy.Mode = string(inputs.Mode)
	s.cfg.GCP.Project = inputs.Project

	deployUI := ui.NewDeployUI(out, emojiEnabled)
	runtime, err := buildRuntime(deps.Context, deps, s, deployUI)
	if err != nil {
		return exitWithError(out, err)
	}
	defer runtime.close(s.logger)

	deployUI.Block("🧭", "Deploy plan", []ui.KeyValue{
		{Key: "Repository", Value: inputs.Repository},
		{Key: "Prefix", Value: inputs.Prefix},
		{Key: "Region", Value: inputs.Region},
		{Key: "Strategy", Value: displayStrategy(inputs.Strategy)},
		{Key: "Budget", Value: fmt.Sprintf("$%.2f", inputs.Budget)},
		{Key: "Mode", Value: inputs.Mode},
		{Key: "Builder", Value: inputs.Builder},
	})

	workflow := runtime.Workflow
	workflow.Approve = newApprover(inputs, deps.Prompter, tty)
	request := deploy.Request{
		Repository:      inputs.Repository,
		Project:         inputs.Project,
		Region:          inputs.Region,
		Prefix:          inputs.Prefix,
		Strategy:        inputs.Strategy,
		Budget:          inputs.Budget,
		Mode:            inputs.Mode,
		CredentialsFile: s.cfg.GCP.CredentialsFile,
		WorkDir:         terraformDir(s),
		Backend:         stateBackend(s.cfg),
	}
	result := workflow.Run(deps.Context, request)

	console := ui.NewWithEmoji(out, emojiEnabled)
	ui.PrintResult(console, result)
	if result.Success && result.Message != "" {
		console.Success(result.Message)
	} else if result.Message != "" {
		console.Info(result.Message)
	}

	writeMetrics(runtime.Metrics, s.cfg.Metrics.File, s.logger)

	if result.Success && !cli.Deploy.NoSave {
		if err := saveDeployDefaults(defaultsPath, stored, inputs); err != nil {
			console.Warn(fmt.Sprintf("Warning: failed to save deploy defaults: %v", err))
		}
	}
	if !result.Success {
		return 1
	}
	return 0
}

// newApprover confirms real deployments interactively. Simulations and
// auto-approved runs proceed without asking.
func newApprover(inputs deployInputs, prompter interaction.Prompter, tty bool) deploy.Approver {
	if inputs.AutoApprove || inputs.Mode != deployment.ModeReal {
		return nil
	}
	if !tty || prompter == nil {
		return func(plan.Plan, float64) (bool, error) { return false, errApprovalRequired }
	}
	return func(p plan.Plan, cost float64) (bool, error) {
		title := fmt.Sprintf("Deploy %d services to %s with the %s strategy (estimated $%.2f/month)?",
			len(p.Services), p.Infrastructure.Region, p.Strategy, cost)
		return prompter.Confirm(title)
	}
}

func saveDeployDefaults(path string, stored config.Defaults, inputs deployInputs) error {
	stored.Prefix = inputs.Prefix
	stored.Region = inputs.Region
	if inputs.Strategy != "" {
		stored.Strategy = inputs.Strategy
	}
	stored.RememberRepository(inputs.Repository)
	return config.SaveDefaults(path, stored)
}

func terraformDir(s session) string {
	dir := s.cfg.Workspace.TerraformDir
	if dir == "" {
		dir = deploy.DefaultWorkDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(s.projectDir, dir)
}

func stateBackend(cfg config.Config) *templategen.Backend {
	if !cfg.RemoteState() {
		return nil
	}
	return &templategen.Backend{
		Bucket:    cfg.State.Bucket,
		Key:       cfg.State.Key,
		Region:    cfg.State.Region,
		LockTable: cfg.State.LockTable,
		Endpoint:  cfg.State.Endpoint,
	}
}

func writeMetrics(recorder *metrics.Recorder, path string, logger *slog.Logger) {
	if recorder == nil || path == "" {
		return
	}
	if err := recorder.WriteTextfile(path); err != nil {
		logger.Warn("write metrics textfile", "path", path, "error", err)
	}
}

func displayStrategy(name string) string {
	if name == "" {
		return "auto"
	}
	return name
}
