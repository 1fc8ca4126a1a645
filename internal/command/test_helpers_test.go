package command

import (
	"bytes"
	"context"
	"errors"
	"testing"

	domainmemory "github.com/poruru/autodeploy/cli/internal/domain/memory"
	"github.com/poruru/autodeploy/cli/internal/domain/resource"
	"github.com/poruru/autodeploy/cli/internal/domain/stack"
	"github.com/poruru/autodeploy/cli/internal/infra/config"
	"github.com/poruru/autodeploy/cli/internal/infra/interaction"
	"github.com/poruru/autodeploy/cli/internal/infra/metrics"
	"github.com/poruru/autodeploy/cli/internal/infra/templategen"
	"github.com/poruru/autodeploy/cli/internal/usecase/deploy"
)

var errNoQueuedAnswer = errors.New("no queued answer")

type fakeAnalyzer struct {
	desc  stack.Descriptor
	err   error
	roots []string
}

func (a *fakeAnalyzer) Analyze(_ context.Context, root string) (stack.Descriptor, error) {
	a.roots = append(a.roots, root)
	return a.desc, a.err
}

type fakePrompter struct {
	inputs        []string
	selects       []string
	confirm       bool
	inputTitles   []string
	selectOptions [][]interaction.SelectOption
	confirmTitles []string
}

func (p *fakePrompter) Input(title string, _ []string) (string, error) {
	p.inputTitles = append(p.inputTitles, title)
	return popQueued(&p.inputs)
}

func (p *fakePrompter) SelectValue(_ string, options []interaction.SelectOption) (string, error) {
	p.selectOptions = append(p.selectOptions, options)
	return popQueued(&p.selects)
}

func (p *fakePrompter) Confirm(title string) (bool, error) {
	p.confirmTitles = append(p.confirmTitles, title)
	return p.confirm, nil
}

func popQueued(values *[]string) (string, error) {
	if len(*values) == 0 {
		return "", errNoQueuedAnswer
	}
	value := (*values)[0]
	*values = (*values)[1:]
	return value, nil
}

type fakeHistory struct {
	deployments  []domainmemory.DeploymentRecord
	failures     []domainmemory.FailureRecord
	err          error
	fingerprints []string
}

func (h *fakeHistory) History(_ context.Context, fingerprint string) ([]domainmemory.DeploymentRecord, []domainmemory.FailureRecord, error) {
	h.fingerprints = append(h.fingerprints, fingerprint)
	return h.deployments, h.failures, h.err
}

func sampleDescriptor() stack.Descriptor {
	return stack.Descriptor{
		RuntimeVersion: "8.0",
		Database:       stack.DatabasePostgreSQL,
		Candidates: []stack.Candidate{
			{Name: "Shop.Api", Path: "/repo/Shop.Api", Containerized: true, APICapable: true},
			{Name: "Shared.Utils", Path: "/repo/Shared.Utils"},
		},
	}
}

type commandHarness struct {
	deps       Dependencies
	out        *bytes.Buffer
	errOut     *bytes.Buffer
	projectDir string
	analyzer   *fakeAnalyzer
	history    *fakeHistory
	configs    []config.Config
	envs       []RuntimeEnv
	closed     int
}

func newCommandHarness(t *testing.T) *commandHarness {
	t.Helper()
	h := &commandHarness{
		out:        &bytes.Buffer{},
		errOut:     &bytes.Buffer{},
		projectDir: t.TempDir(),
		analyzer:   &fakeAnalyzer{desc: sampleDescriptor()},
		history:    &fakeHistory{},
	}
	h.deps = Dependencies{
		Out:    h.out,
		ErrOut: h.errOut,
		IsTTY:  func() bool { return false },
		Getwd:  func() (string, error) { return h.projectDir, nil },
		Runtime: func(_ context.Context, cfg config.Config, env RuntimeEnv) (Runtime, error) {
			h.configs = append(h.configs, cfg)
			h.envs = append(h.envs, env)
			return Runtime{
				Workflow: deploy.Workflow{
					Analyzer:  h.analyzer,
					Generator: resource.Generator{NewSuffix: func() (string, error) { return "abc123", nil }},
					WriteDocuments: func(string, resource.Graph, templategen.Options) (map[string]string, error) {
						return map[string]string{templategen.FileMain: ""}, nil
					},
					UserInterface: env.UI,
					Logger:        env.Logger,
					NewID:         func() string { return "dep-0badcafe" },
				},
				History: h.history,
				Metrics: metrics.NewRecorder(),
				Close: func() error {
					h.closed++
					return nil
				},
			}, nil
		},
	}
	return h
}
