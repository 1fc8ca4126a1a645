// Where: cli/internal/advisor/advisor.go
// What: Optional advice capability consulted during planning and failure handling.
// Why: Select a real or a null advisor once at construction.
package advisor

import (
	"context"
	"regexp"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/domain/plan"
	"github.com/poruru/autodeploy/cli/internal/domain/stack"
)

// Advisor offers non-binding suggestions. Implementations never fail the
// pipeline: unavailable advice is reported as absent.
type Advisor interface {
	Strategy(ctx context.Context, desc stack.Descriptor) (string, bool)
	CostOptimizations(ctx context.Context, p plan.Plan, budget float64) ([]string, error)
	Recovery(ctx context.Context, err error) (string, bool)
}

// Null returns no advice.
type Null struct{}

func (Null) Strategy(context.Context, stack.Descriptor) (string, bool) { return "", false }

func (Null) CostOptimizations(context.Context, plan.Plan, float64) ([]string, error) {
	return nil, nil
}

func (Null) Recovery(context.Context, error) (string, bool) { return "", false }

var repoURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://(?:www\.)?(?:github\.com|gitlab\.com|bitbucket\.org)/[\w\-.]+/[\w\-.]+`),
	regexp.MustCompile(`(?:github\.com|gitlab\.com|bitbucket\.org)/[\w\-.]+/[\w\-.]+`),
}

// ExtractRepositoryURL finds a hosted repository URL inside free text.
// Scheme-less matches are returned with https://.
func ExtractRepositoryURL(text string) (string, bool) {
	for _, re := range repoURLPatterns {
		if m := re.FindString(text); m != "" {
			m = strings.TrimRight(m, ".,")
			if !strings.HasPrefix(m, "http") {
				m = "https://" + m
			}
			return m, true
		}
	}
	return "", false
}
