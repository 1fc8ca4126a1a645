// Where: cli/internal/domain/memory/fingerprint.go
// What: Deterministic digest of a plan projection.
// Why: Similar deployments are looked up by fingerprint.
package memory

import (
	"crypto/md5" //nolint:gosec // fingerprint, not a security boundary
	"encoding/hex"
	"encoding/json"

	"github.com/poruru/autodeploy/cli/internal/domain/plan"
)

type projection struct {
	Compute  string `json:"compute"`
	Database string `json:"database"`
	Services int    `json:"services"`
}

// Fingerprint digests the plan projection {service count, database kind,
// compute service}. Field order and unrelated metadata do not affect it.
func Fingerprint(p plan.Plan) string {
	// projection only holds strings and ints, so Marshal cannot fail.
	payload, _ := json.Marshal(projection{
		Compute:  p.Infrastructure.ComputeService,
		Database: string(p.Database.Kind),
		Services: len(p.Services),
	})
	sum := md5.Sum(payload) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
