// Where: cli/internal/domain/memory/record.go
// What: Persisted deployment memory document and records.
// Why: Define the append-only shape shared by every memory store backend.
package memory

import (
	"time"

	"github.com/poruru/autodeploy/cli/internal/domain/deployment"
	"github.com/poruru/autodeploy/cli/internal/domain/plan"
)

// MaxSimilar caps similarity lookups.
const MaxSimilar = 5

// DeploymentRecord is appended once per completed pipeline run.
type DeploymentRecord struct {
	ID          string            `json:"id"`
	Intent      deployment.Intent `json:"intent"`
	Plan        plan.Plan         `json:"plan"`
	Result      deployment.Result `json:"result"`
	Fingerprint string            `json:"tech_stack_fingerprint"`
	Timestamp   time.Time         `json:"timestamp"`
}

// FailureRecord is appended when a run aborts before producing a result.
type FailureRecord struct {
	Intent     deployment.Intent `json:"intent"`
	Error      string            `json:"error"`
	Code       string            `json:"code,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Document is the whole persisted store.
type Document struct {
	Deployments []DeploymentRecord `json:"deployments"`
	Failures    []FailureRecord    `json:"failures"`
}

// NewDocument returns an empty document with non-nil slices.
func NewDocument() Document {
	return Document{Deployments: []DeploymentRecord{}, Failures: []FailureRecord{}}
}

// Experience summarises a past deployment for decision making.
type Experience struct {
	DeploymentID string  `json:"deployment_id"`
	Success      bool    `json:"success"`
	Cost         float64 `json:"cost"`
	Services     int     `json:"services"`
	Failed       int     `json:"failed"`
}

// FindSimilar returns records whose fingerprint equals fp, most recent first,
// capped at MaxSimilar.
func (d Document) FindSimilar(fp string) []DeploymentRecord {
	var out []DeploymentRecord
	for i := len(d.Deployments) - 1; i >= 0 && len(out) < MaxSimilar; i-- {
		if d.Deployments[i].Fingerprint == fp {
			out = append(out, d.Deployments[i])
		}
	}
	return out
}

// Experiences summarises records for the advisor and the operator.
func Experiences(records []DeploymentRecord) []Experience {
	out := make([]Experience, 0, len(records))
	for _, r := range records {
		out = append(out, Experience{
			DeploymentID: r.ID,
			Success:      r.Result.Success,
			Cost:         r.Result.CostEstimate,
			Services:     len(r.Result.Services),
			Failed:       len(r.Result.FailedServices()),
		})
	}
	return out
}
