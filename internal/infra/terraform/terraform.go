// Where: cli/internal/infra/terraform/terraform.go
// What: Provisioning engine collaborator over the terraform binary.
// Why: Map CLI exit signals to typed outcomes for the provisioning controller.
package terraform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/infra/runner"
)

// DefaultBinary is resolved from PATH.
const DefaultBinary = "terraform"

// PlanSignal is the outcome of a successful dry-run plan.
type PlanSignal int

const (
	PlanNoChanges PlanSignal = iota
	PlanChangesPending
)

func (s PlanSignal) String() string {
	if s == PlanChangesPending {
		return "changes-pending"
	}
	return "no-changes"
}

// ErrCommandFailed wraps every non-success terraform exit.
var ErrCommandFailed = errors.New("terraform command failed")

// OutputValue is one entry of `terraform output -json`.
type OutputValue struct {
	Sensitive bool            `json:"sensitive"`
	Type      json.RawMessage `json:"type"`
	Value     json.RawMessage `json:"value"`
}

// AsString decodes a string output; ok is false for other types.
func (o OutputValue) AsString() (string, bool) {
	var s string
	if err := json.Unmarshal(o.Value, &s); err != nil {
		return "", false
	}
	return s, true
}

// AsStringMap decodes a map-of-strings output.
func (o OutputValue) AsStringMap() (map[string]string, bool) {
	var m map[string]string
	if err := json.Unmarshal(o.Value, &m); err != nil {
		return nil, false
	}
	return m, true
}

// Engine drives terraform in a working directory.
type Engine struct {
	runner runner.CommandRunner
	binary string
	logger *slog.Logger
}

// NewEngine returns an Engine. An empty binary uses DefaultBinary.
func NewEngine(r runner.CommandRunner, binary string, logger *slog.Logger) *Engine {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{runner: r, binary: binary, logger: logger.With("component", "terraform")}
}

func (e *Engine) Init(ctx context.Context, dir string) error {
	_, err := e.run(ctx, dir, "init", "-upgrade", "-reconfigure", "-input=false", "-no-color")
	return err
}

func (e *Engine) Validate(ctx context.Context, dir string) error {
	_, err := e.run(ctx, dir, "validate", "-no-color")
	return err
}

// Plan runs a dry-run plan. Exit 0 means no changes, exit 2 means changes
// pending; anything else is an error.
func (e *Engine) Plan(ctx context.Context, dir string) (PlanSignal, error) {
	res, err := e.runner.RunCapture(ctx, dir, e.binary,
		"plan", "-input=false", "-lock=false", "-detailed-exitcode", "-no-color")
	if err == nil {
		return PlanNoChanges, nil
	}
	if code, ok := runner.ExitCode(err); ok && code == 2 {
		return PlanChangesPending, nil
	}
	return PlanNoChanges, e.failure("plan", res, err)
}

func (e *Engine) Apply(ctx context.Context, dir string) error {
	_, err := e.run(ctx, dir, "apply", "-auto-approve", "-input=false", "-lock=false", "-no-color")
	return err
}

// Output reads `terraform output -json`.
func (e *Engine) Output(ctx context.Context, dir string) (map[string]OutputValue, error) {
	res, err := e.run(ctx, dir, "output", "-json")
	if err != nil {
		return nil, err
	}
	outputs := map[string]OutputValue{}
	if err := json.Unmarshal(res.Stdout, &outputs); err != nil {
		return nil, fmt.Errorf("decode terraform outputs: %w", err)
	}
	return outputs, nil
}

func (e *Engine) run(ctx context.Context, dir string, args ...string) (runner.Result, error) {
	e.logger.Debug("terraform", "dir", dir, "args", args)
	res, err := e.runner.RunCapture(ctx, dir, e.binary, args...)
	if err != nil {
		return res, e.failure(args[0], res, err)
	}
	return res, nil
}

func (e *Engine) failure(op string, res runner.Result, err error) error {
	detail := strings.TrimSpace(string(res.Stderr))
	if detail == "" {
		detail = strings.TrimSpace(string(res.Stdout))
	}
	e.logger.Debug("terraform failed", "op", op, "stderr", detail)
	if detail == "" {
		return fmt.Errorf("%w: %s: %v", ErrCommandFailed, op, err)
	}
	return fmt.Errorf("%w: %s: %v: %s", ErrCommandFailed, op, err, detail)
}
