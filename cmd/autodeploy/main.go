// Where: cli/cmd/autodeploy/main.go
// What: CLI entrypoint.
// Why: Execute autodeploy commands with configured dependencies.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/poruru/autodeploy/cli/internal/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	deps := buildDependencies(ctx)
	code := command.Run(os.Args[1:], deps)
	stop()
	os.Exit(code)
}
