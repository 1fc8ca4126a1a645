// Where: cli/internal/infra/runner/runnertest/fake.go
// What: Scripted CommandRunner for tests.
// Why: Replace terraform and gcloud processes with canned responses.
package runnertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/poruru/autodeploy/cli/internal/infra/runner"
)

// Call records one invocation.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Line renders the call as "name arg1 arg2".
func (c Call) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response is a canned outcome. A non-zero ExitCode produces a runner.ExitError.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

type script struct {
	prefix    string
	responses []Response
	used      int
}

// Fake matches calls by command-line prefix. Responses for a prefix are
// consumed in order and the last one repeats. Unmatched calls succeed
// with empty output.
type Fake struct {
	mu      sync.Mutex
	scripts []*script
	Calls   []Call
}

// On registers responses for calls whose line starts with prefix.
func (f *Fake) On(prefix string, responses ...Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, &script{prefix: prefix, responses: responses})
	return f
}

// Count returns how many recorded calls start with prefix.
func (f *Fake) Count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if strings.HasPrefix(c.Line(), prefix) {
			n++
		}
	}
	return n
}

// Lines returns every recorded call line.
func (f *Fake) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		out = append(out, c.Line())
	}
	return out
}

func (f *Fake) Run(ctx context.Context, dir, name string, args ...string) error {
	_, err := f.RunCapture(ctx, dir, name, args...)
	return err
}

func (f *Fake) RunOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	res, err := f.RunCapture(ctx, dir, name, args...)
	return append(res.Stdout, res.Stderr...), err
}

func (f *Fake) RunCapture(_ context.Context, dir, name string, args ...string) (runner.Result, error) {
	call := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}
	f.mu.Lock()
	f.Calls = append(f.Calls, call)
	resp := f.next(call.Line())
	f.mu.Unlock()

	res := runner.Result{Stdout: []byte(resp.Stdout), Stderr: []byte(resp.Stderr), ExitCode: resp.ExitCode}
	if resp.Err != nil {
		return res, fmt.Errorf("run %s: %w", name, resp.Err)
	}
	if resp.ExitCode != 0 {
		return res, fmt.Errorf("run %s: %w", name, &runner.ExitError{Code: resp.ExitCode, Stderr: resp.Stderr})
	}
	return res, nil
}

func (f *Fake) next(line string) Response {
	var match *script
	for _, s := range f.scripts {
		if strings.HasPrefix(line, s.prefix) && (match == nil || len(s.prefix) > len(match.prefix)) {
			match = s
		}
	}
	if match == nil || len(match.responses) == 0 {
		return Response{}
	}
	idx := match.used
	if idx >= len(match.responses) {
		idx = len(match.responses) - 1
	}
	match.used++
	return match.responses[idx]
}
