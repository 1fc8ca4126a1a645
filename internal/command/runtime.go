// Where: cli/internal/command/runtime.go
// What: Runtime collaborators built from configuration.
// Why: Commands stay testable while cmd/autodeploy owns concrete wiring.
package command

import (
	"context"
	"log/slog"

	domainmemory "github.com/poruru/autodeploy/cli/internal/domain/memory"
	"github.com/poruru/autodeploy/cli/internal/infra/config"
	"github.com/poruru/autodeploy/cli/internal/infra/metrics"
	"github.com/poruru/autodeploy/cli/internal/infra/ui"
	"github.com/poruru/autodeploy/cli/internal/usecase/deploy"
)

// RuntimeEnv is what a command hands to the RuntimeFactory.
type RuntimeEnv struct {
	ProjectDir string
	UI         ui.UserInterface
	Logger     *slog.Logger
}

// HistoryReader lists recorded outcomes, newest first.
type HistoryReader interface {
	History(ctx context.Context, fingerprint string) ([]domainmemory.DeploymentRecord, []domainmemory.FailureRecord, error)
}

// Runtime is the set of collaborators a command runs against.
type Runtime struct {
	Workflow deploy.Workflow
	History  HistoryReader
	Metrics  *metrics.Recorder
	Close    func() error
}

// RuntimeFactory builds a Runtime for cfg.
type RuntimeFactory func(ctx context.Context, cfg config.Config, env RuntimeEnv) (Runtime, error)

func (r Runtime) close(logger *slog.Logger) {
	if r.Close == nil {
		return
	}
	if err := r.Close(); err != nil && logger != nil {
		logger.Warn("close runtime", "error", err)
	}
}

func buildRuntime(ctx context.Context, deps Dependencies, s session, out ui.UserInterface) (Runtime, error) {
	if deps.Runtime == nil {
		return Runtime{}, errRuntimeNotConfigured
	}
	return deps.Runtime(ctx, s.cfg, RuntimeEnv{ProjectDir: s.projectDir, UI: out, Logger: s.logger})
}
