// Where: cli/internal/command/branding.go
// What: CLI naming for usage and help output.
// Why: Keep user-facing command names consistent when the binary is wrapped.
package command

import (
	"os"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/meta"
)

func cliName() string {
	name := strings.TrimSpace(os.Getenv("CLI_CMD"))
	if name == "" {
		name = strings.TrimSpace(meta.AppName)
	}
	if name == "" {
		name = "autodeploy"
	}
	return name
}
