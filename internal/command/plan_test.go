package command

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestRunPlanTable(t *testing.T) {
	h := newCommandHarness(t)
	repo := t.TempDir()

	if code := Run([]string{"plan", repo}, h.deps); code != 0 {
		t.Fatalf("expected exit 0, got %d\n%s", code, h.out.String())
	}
	out := h.out.String()
	for _, want := range []string{"Deployment plan", "SERVICE", "shop-api", "$13.00", "Skipped shared libraries: Shared.Utils"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if h.closed != 1 {
		t.Fatalf("runtime should be closed")
	}
}

func TestRunPlanYAML(t *testing.T) {
	h := newCommandHarness(t)
	repo := t.TempDir()

	if code := Run([]string{"plan", repo, "-o", "yaml", "-s", "performance"}, h.deps); code != 0 {
		t.Fatalf("expected exit 0, got %d\n%s", code, h.out.String())
	}
	var view struct {
		Repository    string  `yaml:"repository"`
		Fingerprint   string  `yaml:"fingerprint"`
		EstimatedCost float64 `yaml:"estimated_monthly_cost"`
		Plan          struct {
			Strategy string `yaml:"strategy"`
			Services []struct {
				Name string `yaml:"name"`
				CPU  string `yaml:"cpu"`
			} `yaml:"services"`
		} `yaml:"plan"`
	}
	if err := yaml.Unmarshal(h.out.Bytes(), &view); err != nil {
		t.Fatalf("output is not yaml: %v\n%s", err, h.out.String())
	}
	if view.Repository != repo || view.EstimatedCost != 13 || view.Fingerprint == "" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Plan.Strategy != "performance" || len(view.Plan.Services) != 1 || view.Plan.Services[0].CPU != "2" {
		t.Fatalf("unexpected plan: %+v", view.Plan)
	}
	if !strings.Contains(h.errOut.String(), "Analyzing repository") {
		t.Fatalf("progress should go to stderr, got %q", h.errOut.String())
	}
}

func TestRunPlanJSON(t *testing.T) {
	h := newCommandHarness(t)
	if code := Run([]string{"plan", t.TempDir(), "--output", "json"}, h.deps); code != 0 {
		t.Fatalf("expected exit 0, got %d\n%s", code, h.out.String())
	}
	var view map[string]any
	if err := json.Unmarshal(h.out.Bytes(), &view); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, h.out.String())
	}
	if _, ok := view["plan"]; !ok {
		t.Fatalf("plan missing from json: %v", view)
	}
}

func TestRunPlanRejectsUnknownStrategy(t *testing.T) {
	h := newCommandHarness(t)
	if code := Run([]string{"plan", t.TempDir(), "-s", "fastest"}, h.deps); code == 0 {
		t.Fatalf("expected non-zero exit code")
	}
	if len(h.configs) != 0 {
		t.Fatalf("runtime should not be built for invalid input")
	}
}
