// Where: cli/internal/infra/runner/runner.go
// What: External command execution (terraform, gcloud).
// Why: Every blocking tool invocation goes through one mockable seam.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// CommandRunner defines the interface for executing external commands.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
	RunOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error)
	RunCapture(ctx context.Context, dir, name string, args ...string) (Result, error)
}

// Result holds separated output streams and the exit code.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// ExitError reports a non-zero exit status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("exit status %d: %s", e.Code, e.Stderr)
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode extracts the exit status from err. ok is false when err is not
// an exit status (for example, the binary was not found).
func ExitCode(err error) (code int, ok bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// ExecRunner is a concrete implementation of CommandRunner using os/exec.
type ExecRunner struct {
	Out    io.Writer
	ErrOut io.Writer
	Env    []string
}

func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := r.command(ctx, dir, name, args...)
	cmd.Stdout = writerOr(r.Out, os.Stdout)
	cmd.Stderr = writerOr(r.ErrOut, os.Stderr)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", name, convert(err, ""))
	}
	return nil
}

func (r ExecRunner) RunOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := r.command(ctx, dir, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("run %s: %w", name, convert(err, string(bytes.TrimSpace(output))))
	}
	return output, nil
}

func (r ExecRunner) RunCapture(ctx context.Context, dir, name string, args ...string) (Result, error) {
	cmd := r.command(ctx, dir, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		converted := convert(err, string(bytes.TrimSpace(stderr.Bytes())))
		if code, ok := ExitCode(converted); ok {
			res.ExitCode = code
		}
		return res, fmt.Errorf("run %s: %w", name, converted)
	}
	return res, nil
}

func (r ExecRunner) command(ctx context.Context, dir, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	return cmd
}

func convert(err error, stderr string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Stderr: stderr}
	}
	return err
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}
