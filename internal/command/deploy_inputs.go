// Where: cli/internal/command/deploy_inputs.go
// What: Resolve deploy inputs from flags, config, stored defaults and prompts.
// Why: Keep input precedence in one place so deploy and plan agree.
package command

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/advisor"
	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/infra/config"
	"github.com/poruru/autodeploy/cli/internal/infra/interaction"
)

const (
	builderCloudBuild = "cloudbuild"
	builderDocker     = "docker"
)

var (
	errRuntimeNotConfigured = errors.New("runtime is not configured")
	errRepositoryRequired   = errors.New("repository is required: pass a URL or local path")
	errPrefixRequired       = errors.New("naming prefix is required: use --prefix")
	errApprovalRequired     = errors.New("approval required: rerun with --auto-approve in a non-interactive session")
)

type deployInputs struct {
	Repository  string
	Prefix      string
	Region      string
	Project     string
	Strategy    string
	Budget      float64
	Mode        deployment.Mode
	Builder     string
	AutoApprove bool
}

type inputResolver struct {
	cfg      config.Config
	stored   config.Defaults
	prompter interaction.Prompter
	tty      bool
	isDir    func(string) bool
}

func (r inputResolver) interactive() bool {
	return r.tty && r.prompter != nil
}

func (r inputResolver) resolveDeploy(flags DeployCmd) (deployInputs, error) {
	repository, err := r.repository(flags.Repository)
	if err != nil {
		return deployInputs{}, err
	}
	prefix, err := r.prefix(flags.Prefix)
	if err != nil {
		return deployInputs{}, err
	}
	strategy, err := r.strategy(flags.Strategy)
	if err != nil {
		return deployInputs{}, err
	}
	mode, err := parseMode(firstNonEmpty(flags.Mode, r.cfg.Deploy.Mode))
	if err != nil {
		return deployInputs{}, err
	}
	builder, err := parseBuilder(firstNonEmpty(flags.Builder, r.cfg.Deploy.Builder))
	if err != nil {
		return deployInputs{}, err
	}
	return deployInputs{
		Repository:  repository,
		Prefix:      prefix,
		Region:      r.region(flags.Region),
		Project:     firstNonEmpty(flags.Project, r.cfg.GCP.Project),
		Strategy:    strategy,
		Budget:      r.budget(flags.Budget),
		Mode:        mode,
		Builder:     builder,
		AutoApprove: flags.AutoApprove || r.cfg.Deploy.AutoApprove,
	}, nil
}

func (r inputResolver) repository(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" && r.interactive() {
		answer, err := r.prompter.Input("Repository URL or path", r.stored.RecentRepositories)
		if err != nil {
			return "", fmt.Errorf("prompt repository: %w", err)
		}
		raw = answer
	}
	return normalizeRepository(raw, r.isDir)
}

// normalizeRepository accepts a local directory, a repository URL, or free
// text that mentions a hosted repository URL.
func normalizeRepository(raw string, isDir func(string) bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errRepositoryRequired
	}
	if isDir != nil && isDir(raw) {
		abs, err := filepath.Abs(raw)
		if err != nil {
			return "", fmt.Errorf("resolve repository path: %w", err)
		}
		return abs, nil
	}
	if url, ok := advisor.ExtractRepositoryURL(raw); ok {
		return url, nil
	}
	if !strings.ContainsAny(raw, " \t") && (strings.Contains(raw, "://") || strings.HasPrefix(raw, "git@")) {
		return raw, nil
	}
	return "", fmt.Errorf("no repository URL or directory found in %q", raw)
}

func (r inputResolver) prefix(flag string) (string, error) {
	if value := firstNonEmpty(flag, r.cfg.Deploy.Prefix); value != "" {
		return value, nil
	}
	if r.interactive() {
		var suggestions []string
		if r.stored.Prefix != "" {
			suggestions = []string{r.stored.Prefix}
		}
		answer, err := r.prompter.Input("Naming prefix", suggestions)
		if err != nil {
			return "", fmt.Errorf("prompt prefix: %w", err)
		}
		if value := strings.TrimSpace(answer); value != "" {
			return value, nil
		}
	}
	if r.stored.Prefix != "" {
		return r.stored.Prefix, nil
	}
	return "", errPrefixRequired
}

func (r inputResolver) region(flag string) string {
	return firstNonEmpty(flag, r.stored.Region, r.cfg.GCP.Region, plan.DefaultRegion)
}

func (r inputResolver) strategy(flag string) (string, error) {
	name := strings.TrimSpace(flag)
	if name == "" && r.interactive() {
		preferred := firstNonEmpty(r.stored.Strategy, r.cfg.Deploy.Strategy, plan.DefaultStrategy)
		answer, err := r.prompter.SelectValue("Strategy", strategyOptions(preferred))
		if err != nil {
			return "", fmt.Errorf("prompt strategy: %w", err)
		}
		name = answer
	}
	if name == "" {
		name = firstNonEmpty(r.stored.Strategy, r.cfg.Deploy.Strategy)
	}
	if name == "" {
		return "", nil
	}
	if _, ok := plan.Lookup(name); !ok {
		return "", fmt.Errorf("unknown strategy %q (use cost_optimized, performance or balanced)", name)
	}
	return name, nil
}

func (r inputResolver) budget(flag float64) float64 {
	if flag > 0 {
		return flag
	}
	return r.cfg.Deploy.Budget
}

// strategyOptions lists the strategies with preferred first.
func strategyOptions(preferred string) []interaction.SelectOption {
	labels := map[string]string{
		plan.StrategyCostOptimized: "cost_optimized (smallest instances, scale to zero)",
		plan.StrategyBalanced:      "balanced",
		plan.StrategyPerformance:   "performance (larger instances, high availability)",
	}
	order := []string{plan.StrategyCostOptimized, plan.StrategyBalanced, plan.StrategyPerformance}
	options := make([]interaction.SelectOption, 0, len(order))
	if _, ok := labels[preferred]; ok {
		options = append(options, interaction.SelectOption{Label: labels[preferred], Value: preferred})
	}
	for _, name := range order {
		if name == preferred {
			continue
		}
		options = append(options, interaction.SelectOption{Label: labels[name], Value: name})
	}
	return options
}

func parseMode(value string) (deployment.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(deployment.ModeSimulation):
		return deployment.ModeSimulation, nil
	case string(deployment.ModeReal):
		return deployment.ModeReal, nil
	default:
		return "", fmt.Errorf("invalid mode %q (use simulation or real)", value)
	}
}

func parseBuilder(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", builderCloudBuild:
		return builderCloudBuild, nil
	case builderDocker:
		return builderDocker, nil
	default:
		return "", fmt.Errorf("invalid builder %q (use cloudbuild or docker)", value)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
