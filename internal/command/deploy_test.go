package command

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/infra/config"
	"github.com/poruru/autodeploy/cli/internal/meta"
)

func TestRunDeploySimulation(t *testing.T) {
	h := newCommandHarness(t)
	repo := t.TempDir()

	code := Run([]string{"deploy", repo, "--prefix", "shop", "--no-emoji"}, h.deps)

	if code != 0 {
		t.Fatalf("expected exit 0, got %d\n%s", code, h.out.String())
	}
	out := h.out.String()
	for _, want := range []string{
		"Deploy plan",
		"https://shop-api-abc123-simulated.run.app",
		"$13.00",
		"Deployment completed successfully (simulation mode)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if len(h.analyzer.roots) != 1 || h.analyzer.roots[0] != repo {
		t.Fatalf("unexpected analyzed roots: %v", h.analyzer.roots)
	}
	if h.closed != 1 {
		t.Fatalf("expected runtime to be closed once, got %d", h.closed)
	}
	if got := h.configs[0].Deploy.Mode; got != string(deployment.ModeSimulation) {
		t.Fatalf("runtime built for mode %q", got)
	}

	stored, err := config.LoadDefaults(config.DefaultsPath(h.projectDir))
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if stored.Prefix != "shop" || stored.Region != plan.DefaultRegion {
		t.Fatalf("unexpected stored defaults: %+v", stored)
	}
	if len(stored.RecentRepositories) != 1 || stored.RecentRepositories[0] != repo {
		t.Fatalf("unexpected recent repositories: %v", stored.RecentRepositories)
	}
}

func TestRunDeployNoSaveDefaults(t *testing.T) {
	h := newCommandHarness(t)
	code := Run([]string{"deploy", t.TempDir(), "--prefix", "shop", "--no-save-defaults"}, h.deps)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d\n%s", code, h.out.String())
	}
	if _, err := os.Stat(config.DefaultsPath(h.projectDir)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("defaults should not be written, stat err = %v", err)
	}
}

func TestRunDeployFailureExitsNonZero(t *testing.T) {
	h := newCommandHarness(t)
	h.analyzer.err = errors.New("unreadable project file")

	code := Run([]string{"deploy", t.TempDir(), "--prefix", "shop"}, h.deps)

	if code == 0 {
		t.Fatalf("expected non-zero exit code")
	}
	if !strings.Contains(h.out.String(), "unreadable project file") {
		t.Fatalf("expected failure detail in output:\n%s", h.out.String())
	}
	if _, err := os.Stat(config.DefaultsPath(h.projectDir)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("defaults should not be written after a failure")
	}
}

func TestRunDeployWritesMetricsTextfile(t *testing.T) {
	h := newCommandHarness(t)
	metricsPath := filepath.Join(h.projectDir, "autodeploy.prom")
	writeConfig(t, h.projectDir, "metrics:\n  file: "+metricsPath+"\n")

	if code := Run([]string{"deploy", t.TempDir(), "--prefix", "shop"}, h.deps); code != 0 {
		t.Fatalf("expected exit 0, got %d\n%s", code, h.out.String())
	}
	payload, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(payload), "autodeploy_deploy_cost_estimate_dollars 13") {
		t.Fatalf("unexpected metrics:\n%s", payload)
	}
}

func TestRunDeployRequiresPrefixWithoutTTY(t *testing.T) {
	h := newCommandHarness(t)
	code := Run([]string{"deploy", t.TempDir()}, h.deps)
	if code == 0 {
		t.Fatalf("expected non-zero exit code")
	}
	if !strings.Contains(h.out.String(), "naming prefix is required") {
		t.Fatalf("unexpected output: %q", h.out.String())
	}
	if len(h.configs) != 0 {
		t.Fatalf("runtime should not be built before inputs resolve")
	}
}

func TestRunDeployPromptsWhenInteractive(t *testing.T) {
	h := newCommandHarness(t)
	repo := t.TempDir()
	prompter := &fakePrompter{inputs: []string{repo, "shop"}, selects: []string{plan.StrategyBalanced}}
	h.deps.Prompter = prompter
	h.deps.IsTTY = func() bool { return true }

	if code := Run([]string{"deploy"}, h.deps); code != 0 {
		t.Fatalf("expected exit 0, got %d\n%s", code, h.out.String())
	}
	if len(prompter.inputTitles) != 2 {
		t.Fatalf("expected repository and prefix prompts, got %v", prompter.inputTitles)
	}
	if !strings.Contains(h.out.String(), "balanced") {
		t.Fatalf("selected strategy missing from output:\n%s", h.out.String())
	}
	if len(prompter.confirmTitles) != 0 {
		t.Fatalf("simulations should not ask for confirmation")
	}
}

func TestNewApprover(t *testing.T) {
	p := plan.Plan{Strategy: plan.StrategyCostOptimized, Services: []plan.ServiceSpec{{Name: "api"}}}
	p.Infrastructure.Region = "us-central1"

	if approve := newApprover(deployInputs{Mode: deployment.ModeSimulation}, nil, false); approve != nil {
		t.Fatalf("simulations should not need approval")
	}
	if approve := newApprover(deployInputs{Mode: deployment.ModeReal, AutoApprove: true}, nil, false); approve != nil {
		t.Fatalf("auto-approve should skip confirmation")
	}

	approve := newApprover(deployInputs{Mode: deployment.ModeReal}, nil, false)
	if ok, err := approve(p, 13); ok || !errors.Is(err, errApprovalRequired) {
		t.Fatalf("expected approval error without a terminal, got %v %v", ok, err)
	}

	prompter := &fakePrompter{confirm: true}
	approve = newApprover(deployInputs{Mode: deployment.ModeReal}, prompter, true)
	ok, err := approve(p, 13)
	if err != nil || !ok {
		t.Fatalf("expected approval, got %v %v", ok, err)
	}
	if len(prompter.confirmTitles) != 1 || !strings.Contains(prompter.confirmTitles[0], "$13.00") {
		t.Fatalf("unexpected confirm titles: %v", prompter.confirmTitles)
	}
}

func TestStateBackend(t *testing.T) {
	cfg := config.Config{}
	if stateBackend(cfg) != nil {
		t.Fatalf("local state should not render a backend")
	}
	cfg.State = config.StateConfig{Backend: "s3", Bucket: "tf-state", Key: "k", Region: "us-east-1", LockTable: "locks"}
	backend := stateBackend(cfg)
	if backend == nil || backend.Bucket != "tf-state" || backend.LockTable != "locks" {
		t.Fatalf("unexpected backend: %+v", backend)
	}
}

func writeConfig(t *testing.T, projectDir, content string) {
	t.Helper()
	dir := filepath.Join(projectDir, meta.HomeDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, meta.ConfigFile), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
