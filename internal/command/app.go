// Where: cli/internal/command/app.go
// What: CLI entrypoint logic.
// Why: Provide a testable command dispatcher.
package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/poruru/autodeploy/cli/internal/infra/config"
	"github.com/poruru/autodeploy/cli/internal/infra/interaction"
	"github.com/poruru/autodeploy/cli/internal/infra/logging"
	"github.com/poruru/autodeploy/cli/internal/version"
)

// Dependencies holds all injected dependencies required for CLI command execution.
// Runtime builds the pipeline collaborators once configuration is known.
type Dependencies struct {
	Context  context.Context
	Out      io.Writer
	ErrOut   io.Writer
	Prompter interaction.Prompter
	IsTTY    func() bool
	Getwd    func() (string, error)
	Runtime  RuntimeFactory
}

// CLI defines the command-line interface structure parsed by Kong.
// It contains global flags and all subcommand definitions.
type CLI struct {
	Config   string     `short:"c" name:"config" help:"Path to config file (default: .autodeploy/config.yaml)"`
	EnvFile  string     `name:"env-file" help:"Path to .env file"`
	LogLevel string     `name:"log-level" help:"Log level (debug/info/warn/error)"`
	Deploy   DeployCmd  `cmd:"" help:"Analyze, provision and deploy a repository"`
	Plan     PlanCmd    `cmd:"" help:"Show the deployment plan for a repository without deploying"`
	History  HistoryCmd `cmd:"" help:"List recorded deployments and failures"`
	Version  VersionCmd `cmd:"" help:"Show version information"`
}

type (
	// DeployCmd defines the deploy command flags.
	DeployCmd struct {
		Repository  string  `arg:"" optional:"" help:"Repository URL, local path, or text containing a repository URL"`
		Prefix      string  `short:"p" help:"Naming prefix for created resources"`
		Region      string  `short:"r" help:"Region override"`
		Project     string  `help:"Cloud project ID"`
		Strategy    string  `short:"s" help:"Strategy (cost_optimized/performance/balanced)"`
		Budget      float64 `short:"b" help:"Monthly budget ceiling in dollars"`
		Mode        string  `short:"m" help:"Deployment mode (simulation/real)"`
		Builder     string  `help:"Image builder (cloudbuild/docker)"`
		AutoApprove bool    `short:"y" name:"auto-approve" help:"Skip plan confirmation"`
		Emoji       bool    `name:"emoji" help:"Enable emoji output (default: auto)"`
		NoEmoji     bool    `name:"no-emoji" help:"Disable emoji output"`
		NoSave      bool    `name:"no-save-defaults" help:"Do not persist deploy defaults"`
	}

	// PlanCmd defines the plan command flags.
	PlanCmd struct {
		Repository string  `arg:"" help:"Repository URL, local path, or text containing a repository URL"`
		Region     string  `short:"r" help:"Region override"`
		Strategy   string  `short:"s" help:"Strategy (cost_optimized/performance/balanced)"`
		Budget     float64 `short:"b" help:"Monthly budget ceiling in dollars"`
		Output     string  `short:"o" default:"table" enum:"table,yaml,json" help:"Output format (table/yaml/json)"`
	}

	// HistoryCmd defines the history command flags.
	HistoryCmd struct {
		Fingerprint string `short:"f" help:"Only show records for this plan fingerprint"`
		Limit       int    `short:"n" default:"10" help:"Maximum records per section (0 for all)"`
		Failures    bool   `help:"Include failed attempts"`
	}

	VersionCmd struct{}
)

// Run is the main entry point for CLI command execution.
// It parses the command-line arguments, identifies the requested command,
// and dispatches to the appropriate handler. Returns 0 on success, 1 on error.
func Run(args []string, deps Dependencies) int {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.ErrOut == nil {
		deps.ErrOut = os.Stderr
	}
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}
	out := deps.Out

	if len(args) == 0 {
		return runNoArgs(out)
	}

	cli := CLI{}
	parser, err := kong.New(&cli,
		kong.Name(cliName()),
		kong.Description("Analyze a repository, plan its infrastructure and deploy it."),
		kong.Writers(out, deps.ErrOut),
	)
	if err != nil {
		return exitWithError(out, err)
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return handleParseError(err, out)
	}

	loadEnvFile(cli.EnvFile, out)

	command := ctx.Command()
	if exitCode, handled := dispatchCommand(command, cli, deps); handled {
		return exitCode
	}

	legacyUI(out).Warn("unknown command")
	return 1
}

type commandHandler func(CLI, Dependencies) int

func dispatchCommand(command string, cli CLI, deps Dependencies) (int, bool) {
	handlers := map[string]commandHandler{
		"deploy":              runDeploy,
		"deploy <repository>": runDeploy,
		"plan <repository>":   runPlan,
		"history":             runHistory,
		"version":             func(_ CLI, deps Dependencies) int { return runVersion(deps.Out) },
	}
	if handler, ok := handlers[command]; ok {
		return handler(cli, deps), true
	}
	return 1, false
}

// loadEnvFile loads the named env file, or .env in the working directory.
func loadEnvFile(path string, out io.Writer) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			legacyUI(out).Warn(fmt.Sprintf("Warning: failed to load env file %s: %v", path, err))
		}
		return
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			legacyUI(out).Warn(fmt.Sprintf("Warning: failed to load .env: %v", err))
		}
	}
}

// session is the per-invocation state shared by commands that load config.
type session struct {
	cfg        config.Config
	projectDir string
	logger     *slog.Logger
}

func openSession(cli CLI, deps Dependencies) (session, error) {
	projectDir, err := deps.Getwd()
	if err != nil {
		return session{}, fmt.Errorf("resolve working directory: %w", err)
	}
	path := cli.Config
	required := path != ""
	if !required {
		path = config.DefaultPath(projectDir)
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return session{}, err
	}
	if strings.TrimSpace(cli.LogLevel) != "" {
		cfg.Log.Level = cli.LogLevel
	}
	return session{
		cfg:        cfg,
		projectDir: projectDir,
		logger:     logging.New(deps.ErrOut, cfg.Log.Level, cfg.Log.Format),
	}, nil
}

// runVersion prints the version information of the CLI.
func runVersion(out io.Writer) int {
	legacyUI(out).Info(version.GetVersion())
	return 0
}

// runNoArgs prints a short usage when the CLI is invoked without arguments.
func runNoArgs(out io.Writer) int {
	ui := legacyUI(out)
	cmd := cliName()
	ui.Info("Usage:")
	ui.Info(fmt.Sprintf("  %s deploy <repository> --prefix <name> [--mode simulation|real] [flags]", cmd))
	ui.Info(fmt.Sprintf("  %s plan <repository> [--output table|yaml|json]", cmd))
	ui.Info(fmt.Sprintf("  %s history [--fingerprint <digest>]", cmd))
	ui.Info("")
	ui.Info(fmt.Sprintf("Try: %s deploy --help", cmd))
	return 0
}

// handleParseError provides user-friendly error messages for parse failures.
func handleParseError(err error, out io.Writer) int {
	msg := err.Error()
	if strings.Contains(msg, "expected") && strings.Contains(msg, "value") {
		ui := legacyUI(out)
		cmd := cliName()
		switch {
		case strings.Contains(msg, "--prefix"):
			ui.Warn("`-p/--prefix` expects a value. Provide a name or omit the flag for interactive input.")
			ui.Info(fmt.Sprintf("Example: %s deploy https://github.com/acme/shop -p shop", cmd))
			return 1
		case strings.Contains(msg, "--mode"):
			ui.Warn("`-m/--mode` expects a value. Use simulation or real.")
			ui.Info(fmt.Sprintf("Example: %s deploy https://github.com/acme/shop -m real", cmd))
			return 1
		case strings.Contains(msg, "--env-file"):
			ui.Warn("`--env-file` expects a value. Provide a file path.")
			ui.Info(fmt.Sprintf("Example: %s deploy --env-file .env.prod", cmd))
			return 1
		}
	}
	return exitWithError(out, err)
}
