// Where: cli/internal/usecase/deploy/deploy.go
// What: Deploy workflow types and collaborators.
// Why: Encapsulate pipeline orchestration without CLI concerns.
package deploy

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/poruru/autodeploy/cli/internal/advisor"
	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	domainmemory "github.com/poruru/autodeploy/cli/internal/domain/memory"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/domain/resource"
	"github.com/poruru/autodeploy/cli/internal/domain/stack"
	"github.com/poruru/autodeploy/cli/internal/infra/metrics"
	"github.com/poruru/autodeploy/cli/internal/infra/templategen"
	"github.com/poruru/autodeploy/cli/internal/infra/ui"
	"github.com/poruru/autodeploy/cli/internal/provisioner"
	"github.com/poruru/autodeploy/cli/internal/servicedeploy"
)

var (
	// ErrCancelled is returned when the operator declines the plan.
	ErrCancelled = errors.New("deployment cancelled")

	errRepositoryRequired    = errors.New("repository is required")
	errRealModeNotConfigured = errors.New("real deployments need a provisioner and a service deployer")
)

// RequiredCapabilities are enabled before any real deployment.
var RequiredCapabilities = []string{
	"compute.googleapis.com",
	"sqladmin.googleapis.com",
	"run.googleapis.com",
	"cloudbuild.googleapis.com",
	"artifactregistry.googleapis.com",
	"servicenetworking.googleapis.com",
	"vpcaccess.googleapis.com",
	"iam.googleapis.com",
}

// MonitoringCapability is enabled after services are deployed.
const MonitoringCapability = "monitoring.googleapis.com"

// SimulationProject names the target when simulating without a project.
const SimulationProject = "autodeploy-simulation"

// Request captures the inputs of one pipeline run.
type Request struct {
	Repository      string
	Project         string
	Region          string
	Prefix          string
	Strategy        string
	Budget          float64
	Mode            deployment.Mode
	CredentialsFile string
	WorkDir         string
	Backend         *templategen.Backend
}

// Intent is the recorded form of the request.
func (r Request) Intent() deployment.Intent {
	return deployment.Intent{
		RepositoryURL: r.Repository,
		Prefix:        r.Prefix,
		Region:        r.Region,
		Strategy:      r.Strategy,
		Budget:        r.Budget,
		Mode:          r.Mode,
	}
}

// Cloner fetches a repository into a local checkout.
type Cloner interface {
	CloneOrUpdate(ctx context.Context, url string) (string, error)
}

// Analyzer describes a local checkout.
type Analyzer interface {
	Analyze(ctx context.Context, root string) (stack.Descriptor, error)
}

// ControlPlane is the cloud control-plane collaborator.
type ControlPlane interface {
	ActiveIdentities(ctx context.Context) ([]string, error)
	ActivateServiceAccount(ctx context.Context, keyFile string) error
	EnableCapability(ctx context.Context, id string) error
}

// Provisioner applies generated documents in a working directory.
type Provisioner interface {
	Provision(ctx context.Context, dir string) (provisioner.Report, error)
}

// Memory records outcomes and answers similarity lookups.
type Memory interface {
	RecordDeployment(ctx context.Context, id string, intent deployment.Intent, p plan.Plan, result deployment.Result) error
	RecordFailure(ctx context.Context, intent deployment.Intent, cause error) error
	RelevantExperiences(ctx context.Context, p plan.Plan) ([]domainmemory.Experience, error)
}

// DocumentWriter serializes a graph into dir, replacing its contents, and
// returns the written documents by file name.
type DocumentWriter func(dir string, g resource.Graph, opts templategen.Options) (map[string]string, error)

// Approver confirms a plan before anything is created. Nil approves.
type Approver func(p plan.Plan, cost float64) (bool, error)

// Workflow wires the pipeline stages.
type Workflow struct {
	Cloner         Cloner
	Analyzer       Analyzer
	ControlPlane   ControlPlane
	Generator      resource.Generator
	WriteDocuments DocumentWriter
	Provisioner    Provisioner
	Services       servicedeploy.Deployer
	Simulator      servicedeploy.Deployer
	Memory         Memory
	Advisor        advisor.Advisor
	Metrics        *metrics.Recorder
	Approve        Approver
	UserInterface  ui.UserInterface
	Logger         *slog.Logger
	NewID          func() string
	IsDir          func(path string) bool
}

// NewDeploymentID returns "dep-" followed by 8 hex characters.
func NewDeploymentID() string {
	return "dep-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (w Workflow) ui() ui.UserInterface {
	if w.UserInterface == nil {
		return ui.Discard
	}
	return w.UserInterface
}

func (w Workflow) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}

func (w Workflow) advisor() advisor.Advisor {
	if w.Advisor == nil {
		return advisor.Null{}
	}
	return w.Advisor
}
