// Where: cli/internal/usecase/deploy/deploy_auth.go
// What: Credential checks and capability enablement for real deployments.
// Why: Abort before any side effect when no usable identity exists.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/domain/deployerr"
)

var placeholderProjects = map[string]bool{
	"your-project-id":  true,
	"your-gcp-project": true,
	"project-id":       true,
}

func (w Workflow) authenticate(ctx context.Context, req Request) error {
	w.ui().Info("Checking cloud authentication...")
	project := strings.TrimSpace(req.Project)
	if project == "" || placeholderProjects[strings.ToLower(project)] {
		return fmt.Errorf("%w: project id is not configured", deployerr.ErrAuthentication)
	}
	if w.ControlPlane == nil {
		return fmt.Errorf("%w: control plane is not configured", deployerr.ErrAuthentication)
	}
	if keyFile := strings.TrimSpace(req.CredentialsFile); keyFile != "" {
		if _, err := os.Stat(keyFile); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: credentials file not found: %s", deployerr.ErrAuthentication, keyFile)
			}
			return fmt.Errorf("%w: credentials file: %v", deployerr.ErrAuthentication, err)
		}
		if err := w.ControlPlane.ActivateServiceAccount(ctx, keyFile); err != nil {
			return fmt.Errorf("%w: activate service account: %v", deployerr.ErrAuthentication, err)
		}
	}
	identities, err := w.ControlPlane.ActiveIdentities(ctx)
	if err != nil {
		return fmt.Errorf("%w: list identities: %v", deployerr.ErrAuthentication, err)
	}
	if len(identities) == 0 {
		return fmt.Errorf("%w: no active identity", deployerr.ErrAuthentication)
	}
	w.ui().Success("Authenticated as " + identities[0])
	return nil
}

// enableCapabilities enables every required API. Failures are warnings.
func (w Workflow) enableCapabilities(ctx context.Context) {
	w.ui().Info("Enabling required cloud APIs...")
	_ = w.track("enable_apis", func() error {
		var failed int
		for _, id := range RequiredCapabilities {
			if err := w.ControlPlane.EnableCapability(ctx, id); err != nil {
				failed++
				w.ui().Warn(fmt.Sprintf("could not enable %s: %v", id, err))
				w.logger().Warn("enable capability failed", "id", id, "error", err)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d capabilities not enabled", failed)
		}
		return nil
	})
}
