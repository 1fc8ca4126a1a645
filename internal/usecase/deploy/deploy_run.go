// Where: cli/internal/usecase/deploy/deploy_run.go
// What: Workflow.Run orchestration skeleton.
// Why: Keep pipeline stage order visible while details live in dedicated files.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/domain/deployerr"
	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
)

const (
	messageReal       = "Deployment completed successfully to Google Cloud Run!"
	messageSimulation = "Deployment completed successfully (simulation mode)"
)

// Run executes the pipeline and always returns an aggregated result.
// Failures, including panics inside a stage, become a failed result.
func (w Workflow) Run(ctx context.Context, req Request) (result deployment.Result) {
	if req.Mode == "" {
		req.Mode = deployment.ModeSimulation
	}
	id := w.newID()
	defer func() {
		if r := recover(); r != nil {
			w.logger().Error("deployment panicked", "deployment_id", id, "panic", r)
			result = w.failure(ctx, id, req, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	res, err := w.run(ctx, id, req)
	if err != nil {
		return w.failure(ctx, id, req, err)
	}
	return res
}

func (w Workflow) run(ctx context.Context, id string, req Request) (deployment.Result, error) {
	if strings.TrimSpace(req.Repository) == "" {
		return deployment.Result{}, fmt.Errorf("%w: %w", deployerr.ErrConfiguration, errRepositoryRequired)
	}
	realMode := req.Mode == deployment.ModeReal
	if !realMode && strings.TrimSpace(req.Project) == "" {
		req.Project = SimulationProject
	}
	w.logger().Info("deployment started", "deployment_id", id, "mode", req.Mode, "repository", req.Repository)

	if realMode && (w.Provisioner == nil || w.Services == nil) {
		return deployment.Result{}, fmt.Errorf("%w: %w", deployerr.ErrConfiguration, errRealModeNotConfigured)
	}
	if realMode {
		if err := w.track("auth", func() error { return w.authenticate(ctx, req) }); err != nil {
			return deployment.Result{}, err
		}
		w.enableCapabilities(ctx)
	}

	desc, err := w.analyzePhase(ctx, req)
	if err != nil {
		return deployment.Result{}, err
	}
	if realMode && !desc.HasContainerMarker() {
		return deployment.Result{}, fmt.Errorf("%w: no container definitions found in repository", deployerr.ErrConfiguration)
	}

	p := w.planPhase(ctx, req, desc)
	if len(p.Services) == 0 {
		return deployment.Result{}, fmt.Errorf("%w: no deployable services found in repository", deployerr.ErrConfiguration)
	}
	cost := plan.EstimateCost(p)
	w.Metrics.SetCostEstimate(cost)
	warnings := w.budgetCheck(ctx, p, cost)

	if w.Approve != nil {
		ok, err := w.Approve(p, cost)
		if err != nil {
			return deployment.Result{}, fmt.Errorf("confirm plan: %w", err)
		}
		if !ok {
			return deployment.Result{}, ErrCancelled
		}
	}
	if err := ctx.Err(); err != nil {
		return deployment.Result{}, err
	}

	graph, err := w.generatePhase(req, p)
	if err != nil {
		return deployment.Result{}, err
	}

	prov, provWarnings, err := w.provisionPhase(ctx, req, graph)
	warnings = append(warnings, provWarnings...)
	if err != nil {
		return deployment.Result{}, err
	}

	records := w.servicesPhase(ctx, req, withSourceRoot(p.Services, desc.Root), graph)
	monitoring := w.monitoringPhase(ctx, req, p, records)

	result := deployment.Result{
		Success:      true,
		DeploymentID: id,
		Mode:         req.Mode,
		Suffix:       graph.Suffix,
		Services:     records,
		Database: deployment.DatabaseInfo{
			Connection: prov.DatabaseConnection,
			PrivateIP:  prov.DatabasePrivateIP,
		},
		CostEstimate: cost,
		Monitoring:   monitoring,
		Message:      messageSimulation,
		Warnings:     warnings,
	}
	if realMode {
		result.Message = messageReal
	}
	if result.Partial() {
		failed := len(result.FailedServices())
		partial := fmt.Errorf("%w: %d of %d services failed", deployerr.ErrPartialDeployment, failed, len(records))
		result.Code = string(deployerr.CodePartial)
		result.Warnings = append(result.Warnings, partial.Error())
	}
	w.Metrics.SetServices(len(records)-len(result.FailedServices()), len(result.FailedServices()))

	w.recordDeployment(ctx, id, req, p, &result)
	w.logger().Info("deployment finished", "deployment_id", id, "services", len(records), "failed", len(result.FailedServices()))
	return result, nil
}

// failure converts err into a failed result and records it.
func (w Workflow) failure(ctx context.Context, id string, req Request, err error) deployment.Result {
	result := deployment.Result{
		Success:      false,
		DeploymentID: id,
		Mode:         req.Mode,
		Services:     []deployment.ServiceRecord{},
		Error:        err.Error(),
		Code:         string(deployerr.Classify(err)),
	}
	if errors.Is(err, ErrCancelled) {
		result.Code = ""
		result.Message = "Deployment cancelled"
		return result
	}
	if suggestion, sErr := deployerr.Suggest(err); sErr == nil {
		result.Suggestion = suggestion
	} else if advice, ok := w.advisor().Recovery(ctx, err); ok {
		result.Suggestion = advice
	}
	w.logger().Error("deployment failed", "deployment_id", id, "code", result.Code, "error", err)

	if w.Memory != nil {
		if recErr := w.Memory.RecordFailure(ctx, req.Intent(), err); recErr != nil {
			w.logger().Warn("could not record failure", "error", recErr)
		}
	}
	return result
}

func (w Workflow) track(stage string, fn func() error) error {
	done := w.Metrics.Track(stage)
	err := fn()
	done(err)
	return err
}

func (w Workflow) newID() string {
	if w.NewID != nil {
		return w.NewID()
	}
	return NewDeploymentID()
}
