// Where: cli/internal/command/output.go
// What: Output helpers for command adapters.
// Why: Centralize console usage and error reporting.
package command

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/poruru/autodeploy/cli/internal/infra/interaction"
	"github.com/poruru/autodeploy/cli/internal/infra/ui"
)

func legacyUI(out io.Writer) *ui.Console {
	return ui.NewWithEmoji(out, false)
}

// exitWithError prints an error message to the output writer and returns
// exit code 1 for CLI error handling.
func exitWithError(out io.Writer, err error) int {
	legacyUI(out).Warn(fmt.Sprintf("✗ %v", err))
	return 1
}

// resolveEmojiEnabled honours --emoji/--no-emoji, then NO_COLOR, then TTY detection.
func resolveEmojiEnabled(out io.Writer, emoji, noEmoji bool) (bool, error) {
	if emoji && noEmoji {
		return false, fmt.Errorf("--emoji and --no-emoji cannot be used together")
	}
	if emoji {
		return true, nil
	}
	if noEmoji {
		return false, nil
	}
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		return false, nil
	}
	if file, ok := out.(*os.File); ok {
		return interaction.IsTerminal(file), nil
	}
	return false, nil
}

func isTTY(deps Dependencies) bool {
	if deps.IsTTY != nil {
		return deps.IsTTY()
	}
	return interaction.IsTerminal(os.Stdin) && interaction.IsTerminal(os.Stdout)
}
