// Where: cli/internal/infra/git/git.go
// What: Source control collaborator built on go-git.
// Why: Clone a target repository into the workspace or refresh an existing checkout.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/poruru/autodeploy/cli/internal/domain/deployerr"
)

// Cloner checks repositories out under Root.
type Cloner struct {
	Root   string
	Token  string
	logger *slog.Logger
}

// NewCloner returns a Cloner rooted at root. A non-empty token is sent as
// HTTP basic auth for private repositories.
func NewCloner(root, token string, logger *slog.Logger) *Cloner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cloner{Root: root, Token: token, logger: logger.With("component", "git")}
}

// RepoName returns the last path element of a repository URL without ".git".
func RepoName(url string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(url), "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")
	if idx := strings.LastIndexAny(trimmed, "/:"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if trimmed == "" || trimmed == "." || trimmed == ".." {
		return "", fmt.Errorf("%w: cannot derive repository name from %q", deployerr.ErrConfiguration, url)
	}
	return trimmed, nil
}

// CloneOrUpdate returns the local checkout path for url. An existing checkout
// is pulled; "already up to date" counts as success.
func (c *Cloner) CloneOrUpdate(ctx context.Context, url string) (string, error) {
	name, err := RepoName(url)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(c.Root, name)

	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		c.logger.Info("updating existing checkout", "path", dest)
		if err := c.pull(ctx, dest); err != nil {
			return "", err
		}
		return dest, nil
	}

	if err := os.MkdirAll(c.Root, 0o755); err != nil {
		return "", fmt.Errorf("create workspace root: %w", err)
	}
	c.logger.Info("cloning repository", "url", url, "path", dest)
	_, err = gogit.PlainCloneContext(ctx, dest, false, &gogit.CloneOptions{
		URL:  url,
		Auth: c.auth(),
	})
	if err != nil {
		_ = os.RemoveAll(dest)
		return "", classify(url, err)
	}
	return dest, nil
}

func (c *Cloner) pull(ctx context.Context, dest string) error {
	repo, err := gogit.PlainOpen(dest)
	if err != nil {
		return fmt.Errorf("open checkout %s: %w", dest, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree %s: %w", dest, err)
	}
	err = wt.PullContext(ctx, &gogit.PullOptions{RemoteName: "origin", Auth: c.auth()})
	if err == nil || errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	return classify(dest, err)
}

func (c *Cloner) auth() transport.AuthMethod {
	if c.Token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "git", Password: c.Token}
}

func classify(target string, err error) error {
	switch {
	case errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrEmptyRemoteRepository):
		return fmt.Errorf("%w: repository not found: %s: %v", deployerr.ErrNotFound, target, err)
	case errors.Is(err, transport.ErrAuthorizationFailed):
		return fmt.Errorf("%w: access to %s denied: %v", deployerr.ErrAuthentication, target, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: fetch %s: %v", deployerr.ErrNetwork, target, err)
	}
}
