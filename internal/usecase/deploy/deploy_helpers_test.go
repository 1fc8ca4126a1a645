// Where: cli/internal/usecase/deploy/deploy_helpers_test.go
// What: Fakes and fixtures shared by workflow tests.
// Why: Keep individual workflow tests focused on one phase.
package deploy

import (
	"context"
	"errors"
	"sync"

	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	domainmemory "github.com/poruru/autodeploy/cli/internal/domain/memory"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/domain/resource"
	"github.com/poruru/autodeploy/cli/internal/domain/stack"
	"github.com/poruru/autodeploy/cli/internal/infra/templategen"
	"github.com/poruru/autodeploy/cli/internal/infra/ui"
	"github.com/poruru/autodeploy/cli/internal/provisioner"
)

type testUI struct {
	mu      sync.Mutex
	success []string
	info    []string
	warn    []string
}

func (u *testUI) Success(msg string)                 { u.mu.Lock(); u.success = append(u.success, msg); u.mu.Unlock() }
func (u *testUI) Info(msg string)                    { u.mu.Lock(); u.info = append(u.info, msg); u.mu.Unlock() }
func (u *testUI) Warn(msg string)                    { u.mu.Lock(); u.warn = append(u.warn, msg); u.mu.Unlock() }
func (u *testUI) Step(_, _ int, _ string)            {}
func (u *testUI) Block(_, _ string, _ []ui.KeyValue) {}

type fakeCloner struct {
	path  string
	err   error
	calls []string
}

func (c *fakeCloner) CloneOrUpdate(_ context.Context, url string) (string, error) {
	c.calls = append(c.calls, url)
	return c.path, c.err
}

type fakeAnalyzer struct {
	desc  stack.Descriptor
	err   error
	panic bool
	roots []string
}

func (a *fakeAnalyzer) Analyze(_ context.Context, root string) (stack.Descriptor, error) {
	if a.panic {
		panic("nil descriptor")
	}
	a.roots = append(a.roots, root)
	return a.desc, a.err
}

type fakeControlPlane struct {
	identities    []string
	identitiesErr error
	enableErr     map[string]error
	enabled       []string
	activated     []string
}

func (c *fakeControlPlane) ActiveIdentities(context.Context) ([]string, error) {
	return c.identities, c.identitiesErr
}

func (c *fakeControlPlane) ActivateServiceAccount(_ context.Context, keyFile string) error {
	c.activated = append(c.activated, keyFile)
	return nil
}

func (c *fakeControlPlane) EnableCapability(_ context.Context, id string) error {
	c.enabled = append(c.enabled, id)
	return c.enableErr[id]
}

type fakeProvisioner struct {
	report provisioner.Report
	err    error
	dirs   []string
}

func (p *fakeProvisioner) Provision(_ context.Context, dir string) (provisioner.Report, error) {
	p.dirs = append(p.dirs, dir)
	return p.report, p.err
}

type fakeDeployer struct {
	failing map[string]string
	calls   int
	sources []string
}

func (d *fakeDeployer) DeployAll(_ context.Context, services []plan.ServiceSpec, _ resource.Target, suffix string) []deployment.ServiceRecord {
	d.calls++
	for _, svc := range services {
		d.sources = append(d.sources, svc.SourcePath)
	}
	out := make([]deployment.ServiceRecord, 0, len(services))
	for _, svc := range services {
		if msg, ok := d.failing[svc.Name]; ok {
			out = append(out, deployment.ServiceRecord{Name: svc.Name, Status: deployment.StatusFailed, Error: msg})
			continue
		}
		out = append(out, deployment.ServiceRecord{
			Name:     svc.Name,
			Status:   deployment.StatusDeployed,
			Endpoint: "https://" + resource.ServiceName(svc.Name, suffix) + "-uc.a.run.app",
		})
	}
	return out
}

type recordingMemory struct {
	deployments []deployment.Result
	failures    []error
	experiences []domainmemory.Experience
	recordErr   error
}

func (m *recordingMemory) RecordDeployment(_ context.Context, _ string, _ deployment.Intent, _ plan.Plan, result deployment.Result) error {
	m.deployments = append(m.deployments, result)
	return m.recordErr
}

func (m *recordingMemory) RecordFailure(_ context.Context, _ deployment.Intent, cause error) error {
	m.failures = append(m.failures, cause)
	return nil
}

func (m *recordingMemory) RelevantExperiences(context.Context, plan.Plan) ([]domainmemory.Experience, error) {
	return m.experiences, nil
}

type writtenDocs struct {
	dirs   []string
	graphs []resource.Graph
	opts   []templategen.Options
	err    error
}

func (d *writtenDocs) write(dir string, g resource.Graph, opts templategen.Options) (map[string]string, error) {
	d.dirs = append(d.dirs, dir)
	d.graphs = append(d.graphs, g)
	d.opts = append(d.opts, opts)
	if d.err != nil {
		return nil, d.err
	}
	return map[string]string{templategen.FileMain: "", templategen.FileVariables: "", templategen.FileVersions: ""}, nil
}

type stubAdvisor struct {
	strategy    string
	suggestions []string
	recovery    string
}

func (a stubAdvisor) Strategy(context.Context, stack.Descriptor) (string, bool) {
	return a.strategy, a.strategy != ""
}

func (a stubAdvisor) CostOptimizations(context.Context, plan.Plan, float64) ([]string, error) {
	if a.suggestions == nil {
		return nil, errors.New("advisor offline")
	}
	return a.suggestions, nil
}

func (a stubAdvisor) Recovery(context.Context, error) (string, bool) {
	return a.recovery, a.recovery != ""
}

func sampleDescriptor() stack.Descriptor {
	return stack.Descriptor{
		RuntimeVersion: "8.0",
		Database:       stack.DatabasePostgreSQL,
		Candidates: []stack.Candidate{
			{Name: "Shop.Api", Path: "/repo/Shop.Api", Containerized: true, APICapable: true},
			{Name: "Orders.Api", Path: "/repo/Orders.Api", Containerized: true, APICapable: true},
			{Name: "Shared.Utils", Path: "/repo/Shared.Utils", Containerized: true},
		},
	}
}

type harness struct {
	workflow    Workflow
	ui          *testUI
	cloner      *fakeCloner
	analyzer    *fakeAnalyzer
	plane       *fakeControlPlane
	provisioner *fakeProvisioner
	services    *fakeDeployer
	memory      *recordingMemory
	docs        *writtenDocs
}

func newHarness() *harness {
	h := &harness{
		ui:       &testUI{},
		cloner:   &fakeCloner{path: "/work/shop"},
		analyzer: &fakeAnalyzer{desc: sampleDescriptor()},
		plane:    &fakeControlPlane{identities: []string{"ops@example.com"}},
		provisioner: &fakeProvisioner{report: provisioner.Report{Result: deployment.ProvisioningResult{
			Success:            true,
			DatabaseConnection: "demo:us-central1:shop-postgres-abc123",
			DatabasePrivateIP:  "10.0.0.3",
			ServiceURLs:        map[string]string{},
		}}},
		services: &fakeDeployer{},
		memory:   &recordingMemory{},
		docs:     &writtenDocs{},
	}
	h.workflow = Workflow{
		Cloner:         h.cloner,
		Analyzer:       h.analyzer,
		ControlPlane:   h.plane,
		Generator:      resource.Generator{NewSuffix: func() (string, error) { return "abc123", nil }},
		WriteDocuments: h.docs.write,
		Provisioner:    h.provisioner,
		Services:       h.services,
		Memory:         h.memory,
		UserInterface:  h.ui,
		NewID:          func() string { return "dep-0badcafe" },
		IsDir:          func(string) bool { return false },
	}
	return h
}

func realRequest() Request {
	return Request{
		Repository: "https://github.com/acme/shop",
		Project:    "demo",
		Region:     "us-central1",
		Prefix:     "shop",
		Strategy:   plan.StrategyCostOptimized,
		Budget:     100,
		Mode:       deployment.ModeReal,
		WorkDir:    "/tmp/tf",
	}
}
