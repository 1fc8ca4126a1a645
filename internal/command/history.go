// Where: cli/internal/command/history.go
// What: History command listing recorded deployments and failures.
// Why: Surface deployment memory without opening the store by hand.
package command

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	domainmemory "github.com/poruru/autodeploy/cli/internal/domain/memory"
	"github.com/poruru/autodeploy/cli/internal/infra/ui"
)

// runHistory executes the 'history' command.
func runHistory(cli CLI, deps Dependencies) int {
	out := deps.Out
	flags := cli.History

	s, err := openSession(cli, deps)
	if err != nil {
		return exitWithError(out, err)
	}
	runtime, err := buildRuntime(deps.Context, deps, s, ui.Discard)
	if err != nil {
		return exitWithError(out, err)
	}
	defer runtime.close(s.logger)
	if runtime.History == nil {
		return exitWithError(out, fmt.Errorf("deployment memory is not configured"))
	}

	deployments, failures, err := runtime.History.History(deps.Context, flags.Fingerprint)
	if err != nil {
		return exitWithError(out, err)
	}
	if err := renderHistory(out, limitDeployments(deployments, flags.Limit)); err != nil {
		return exitWithError(out, err)
	}
	if flags.Failures {
		if err := renderFailures(out, limitFailures(failures, flags.Limit)); err != nil {
			return exitWithError(out, err)
		}
	}
	return 0
}

func renderHistory(out io.Writer, records []domainmemory.DeploymentRecord) error {
	if len(records) == 0 {
		legacyUI(out).Info("No recorded deployments.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tREPOSITORY\tSTRATEGY\tSERVICES\tFAILED\tCOST\tFINGERPRINT")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t$%.2f\t%s\n",
			r.ID,
			r.Timestamp.UTC().Format(time.RFC3339),
			r.Intent.RepositoryURL,
			r.Plan.Strategy,
			len(r.Result.Services),
			len(r.Result.FailedServices()),
			r.Result.CostEstimate,
			r.Fingerprint)
	}
	return tw.Flush()
}

func renderFailures(out io.Writer, records []domainmemory.FailureRecord) error {
	console := legacyUI(out)
	console.BlockStart("", "Failures")
	if len(records) == 0 {
		console.Info("No recorded failures.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tREPOSITORY\tCODE\tERROR")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.Timestamp.UTC().Format(time.RFC3339), r.Intent.RepositoryURL, r.Code, r.Error)
	}
	return tw.Flush()
}

func limitDeployments(records []domainmemory.DeploymentRecord, limit int) []domainmemory.DeploymentRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

func limitFailures(records []domainmemory.FailureRecord, limit int) []domainmemory.FailureRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
