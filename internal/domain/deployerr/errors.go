// Where: cli/internal/domain/deployerr/errors.go
// What: Deployment error taxonomy and stable error codes.
// Why: Let every stage report failures the orchestrator can classify.
package deployerr

import (
	"errors"
	"strings"
)

// Code is a stable, serialisable error classification.
type Code string

const (
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeInvalidConfig Code = "INVALID_CONFIGURATION"
	CodeProvisioning  Code = "PROVISIONING_FAILED"
	CodePartial       Code = "PARTIAL_DEPLOYMENT"
	CodeNotFound      Code = "NOT_FOUND"
	CodeNetwork       Code = "NETWORK_ERROR"
	CodeQuota         Code = "QUOTA_EXCEEDED"
	CodeUnknown       Code = "UNKNOWN"
)

var (
	// ErrAuthentication means no active identity or a malformed credential.
	ErrAuthentication = errors.New("authentication error")
	// ErrConfiguration means a required input or marker is missing.
	ErrConfiguration = errors.New("configuration error")
	// ErrProvisioning means the provisioning engine failed to init, plan or apply.
	ErrProvisioning = errors.New("provisioning error")
	// ErrPartialDeployment means some, but not all, services failed.
	ErrPartialDeployment = errors.New("partial deployment")
	// ErrRecoveryUnavailable means no automated remediation is known.
	ErrRecoveryUnavailable = errors.New("recovery unavailable")

	ErrNotFound = errors.New("not found")
	ErrNetwork  = errors.New("network error")
	ErrQuota    = errors.New("quota exceeded")
)

// Classify maps an error to a Code. Specific sentinels win. Provisioning
// failures only consult quota and credential text; everything else falls
// back to message heuristics, then the generic stage sentinels.
func Classify(err error) Code {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAuthentication):
		return CodeUnauthorized
	case errors.Is(err, ErrQuota):
		return CodeQuota
	case errors.Is(err, ErrConfiguration):
		return CodeInvalidConfig
	}
	if errors.Is(err, ErrProvisioning) {
		if code, ok := classifyEngineMessage(err.Error()); ok {
			return code
		}
		return CodeProvisioning
	}
	if code, ok := classifyMessage(err.Error()); ok {
		return code
	}
	switch {
	case errors.Is(err, ErrNetwork):
		return CodeNetwork
	case errors.Is(err, ErrPartialDeployment):
		return CodePartial
	}
	return CodeUnknown
}

// classifyEngineMessage recognises the engine failures an operator can act on.
func classifyEngineMessage(msg string) (Code, bool) {
	text := strings.ToLower(msg)
	switch {
	case strings.Contains(text, "quota"):
		return CodeQuota, true
	case isCredentialText(text):
		return CodeUnauthorized, true
	}
	return "", false
}

func isCredentialText(text string) bool {
	return strings.Contains(text, "authentication") || strings.Contains(text, "credential") ||
		strings.Contains(text, "unauthenticated") || strings.Contains(text, "permission denied")
}

func classifyMessage(msg string) (Code, bool) {
	text := strings.ToLower(msg)
	switch {
	case strings.Contains(text, "repository not found"), strings.Contains(text, "404"):
		return CodeNotFound, true
	case isCredentialText(text):
		return CodeUnauthorized, true
	case strings.Contains(text, "quota"):
		return CodeQuota, true
	case strings.Contains(text, "config"), strings.Contains(text, "parameter"):
		return CodeInvalidConfig, true
	}
	return "", false
}
