// Where: cli/internal/provisioner/controller.go
// What: Provisioning controller driving the engine through its state machine.
// Why: Own the clean, retry and output-degradation policy around apply.
package provisioner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poruru/autodeploy/cli/internal/domain/deployerr"
	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	"github.com/poruru/autodeploy/cli/internal/domain/provision"
	"github.com/poruru/autodeploy/cli/internal/domain/resource"
	"github.com/poruru/autodeploy/cli/internal/infra/fileops"
	"github.com/poruru/autodeploy/cli/internal/infra/terraform"
	"github.com/poruru/autodeploy/cli/internal/infra/ui"
)

// Unknown replaces outputs that could not be read after apply.
const Unknown = "unknown"

var (
	stateArtifacts = []string{
		".terraform",
		"terraform.tfstate",
		"terraform.tfstate.backup",
		".terraform.tfstate.lock.info",
	}
	// forceCleanArtifacts also drops the provider lock file before the init retry.
	forceCleanArtifacts = append(append([]string(nil), stateArtifacts...), ".terraform.lock.hcl")
)

// Engine is the provisioning engine collaborator.
type Engine interface {
	Init(ctx context.Context, dir string) error
	Validate(ctx context.Context, dir string) error
	Plan(ctx context.Context, dir string) (terraform.PlanSignal, error)
	Apply(ctx context.Context, dir string) error
	Output(ctx context.Context, dir string) (map[string]terraform.OutputValue, error)
}

// Bootstrapper prepares remote state storage before init.
type Bootstrapper interface {
	Ensure(ctx context.Context) error
}

// Report is the outcome of one provisioning run.
type Report struct {
	Result   deployment.ProvisioningResult
	States   []provision.State
	Plan     terraform.PlanSignal
	Warnings []string
}

// Controller provisions one working directory at a time.
type Controller struct {
	engine  Engine
	backend Bootstrapper
	ui      ui.UserInterface
	logger  *slog.Logger
}

// NewController returns a Controller. backend may be nil for local state.
func NewController(engine Engine, backend Bootstrapper, out ui.UserInterface, logger *slog.Logger) *Controller {
	if out == nil {
		out = ui.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{engine: engine, backend: backend, ui: out, logger: logger.With("component", "provisioner")}
}

// CleanState removes cached engine state from dir and returns what existed.
func CleanState(dir string, force bool) ([]string, error) {
	names := stateArtifacts
	if force {
		names = forceCleanArtifacts
	}
	return fileops.RemovePaths(dir, names...)
}

// Provision runs clean -> init -> validate -> plan -> apply -> output in dir.
// A failed apply is not rolled back; whatever was created stays visible.
func (c *Controller) Provision(ctx context.Context, dir string) (Report, error) {
	machine := provision.NewMachine()
	report := Report{}

	fail := func(stage string, err error) (Report, error) {
		machine.Fail()
		report.States = machine.History()
		wrapped := fmt.Errorf("%w: %s: %w", deployerr.ErrProvisioning, stage, err)
		report.Result = deployment.ProvisioningResult{Success: false, Error: wrapped.Error(), ServiceURLs: map[string]string{}}
		c.logger.Error("provisioning failed", "stage", stage, "error", err)
		return report, wrapped
	}

	removed, err := CleanState(dir, false)
	if err != nil {
		return fail("clean", err)
	}
	if len(removed) > 0 {
		c.logger.Info("cleared previous state", "dir", dir, "removed", removed)
	}

	if c.backend != nil {
		if err := c.backend.Ensure(ctx); err != nil {
			return fail("state backend", err)
		}
	}

	c.ui.Info("Initializing provisioning engine...")
	if err := c.engine.Init(ctx, dir); err != nil {
		c.ui.Warn(fmt.Sprintf("init failed, cleaning cached state and retrying: %v", err))
		if _, cleanErr := CleanState(dir, true); cleanErr != nil {
			return fail("clean", cleanErr)
		}
		if err := c.engine.Init(ctx, dir); err != nil {
			return fail("init", err)
		}
	}
	if err := machine.Transition(provision.StateInitialized); err != nil {
		return fail("init", err)
	}

	if err := c.engine.Validate(ctx, dir); err != nil {
		msg := fmt.Sprintf("validation reported problems: %v", err)
		c.ui.Warn(msg)
		report.Warnings = append(report.Warnings, msg)
	}
	if err := machine.Transition(provision.StateValidated); err != nil {
		return fail("validate", err)
	}

	c.ui.Info("Computing plan...")
	signal, err := c.engine.Plan(ctx, dir)
	if err != nil {
		return fail("plan", err)
	}
	report.Plan = signal
	c.logger.Info("plan computed", "signal", signal.String())
	if err := machine.Transition(provision.StatePlanComputed); err != nil {
		return fail("plan", err)
	}

	c.ui.Info("Applying infrastructure...")
	if err := c.engine.Apply(ctx, dir); err != nil {
		return fail("apply", err)
	}
	if err := machine.Transition(provision.StateApplied); err != nil {
		return fail("apply", err)
	}

	outputs, err := c.engine.Output(ctx, dir)
	if err != nil {
		msg := fmt.Sprintf("could not read outputs: %v", err)
		c.ui.Warn(msg)
		report.Warnings = append(report.Warnings, msg)
		outputs = nil
	}
	report.Result = resultFromOutputs(outputs)
	if err := machine.Transition(provision.StateOutputsExtracted); err != nil {
		return fail("output", err)
	}
	report.States = machine.History()
	return report, nil
}

func resultFromOutputs(outputs map[string]terraform.OutputValue) deployment.ProvisioningResult {
	res := deployment.ProvisioningResult{
		Success:            true,
		DatabaseConnection: stringOutput(outputs, resource.OutputDatabaseConnection),
		DatabasePrivateIP:  stringOutput(outputs, resource.OutputDatabasePrivateIP),
		RegistryURL:        stringOutput(outputs, resource.OutputRegistryURL),
		Suffix:             stringOutput(outputs, resource.OutputSuffix),
		ServiceURLs:        map[string]string{},
	}
	if value, ok := outputs[resource.OutputServiceURLs]; ok {
		if urls, ok := value.AsStringMap(); ok {
			res.ServiceURLs = urls
		}
	}
	return res
}

func stringOutput(outputs map[string]terraform.OutputValue, name string) string {
	value, ok := outputs[name]
	if !ok {
		return Unknown
	}
	s, ok := value.AsString()
	if !ok || s == "" {
		return Unknown
	}
	return s
}
