// Where: cli/internal/domain/deployerr/recovery.go
// What: Recovery suggestions keyed by error code.
// Why: Only actionable causes carry a suggestion.
package deployerr

import "fmt"

var suggestions = map[Code]string{
	CodeNotFound:      "Please check the repository URL and ensure it exists and is accessible",
	CodeUnauthorized:  "Please check your cloud provider credentials and authentication",
	CodeQuota:         "Check your cloud provider quotas or try a different region",
	CodeInvalidConfig: "There appears to be a configuration issue. Please check the deployment parameters.",
}

// Suggest returns a user-actionable remediation for err. It returns
// ErrRecoveryUnavailable when the cause has no known remediation.
func Suggest(err error) (string, error) {
	code := Classify(err)
	if s, ok := suggestions[code]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %s", ErrRecoveryUnavailable, code)
}
