// Where: cli/internal/infra/interaction/interaction.go
// What: Interactive primitives for CLI prompts and TTY detection.
// Why: Missing deploy inputs are asked for only when a terminal is attached.
package interaction

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// SelectOption represents a single option in a selection menu.
type SelectOption struct {
	Label string // Display text
	Value string // Return value
}

// Prompter defines the interface for interactive user input and selection.
type Prompter interface {
	Input(title string, suggestions []string) (string, error)
	SelectValue(title string, options []SelectOption) (string, error)
	Confirm(title string) (bool, error)
}

// IsTerminal reports whether the file refers to a terminal device.
var IsTerminal = func(file *os.File) bool {
	if file == nil {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// PromptYesNoWithIO prints a confirmation prompt to out and reads the answer from in.
func PromptYesNoWithIO(in io.Reader, out io.Writer, message string) (bool, error) {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	reader := bufio.NewReader(in)
	_, _ = fmt.Fprintf(out, "%s [y/N]: ", message)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	trimmed := strings.TrimSpace(strings.ToLower(line))
	return trimmed == "y" || trimmed == "yes", nil
}

// LinePrompter asks through plain line-based IO. It is used when huh cannot
// drive the terminal (for example under CI with a pseudo TTY).
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p LinePrompter) Input(title string, suggestions []string) (string, error) {
	hint := ""
	if len(suggestions) > 0 {
		hint = fmt.Sprintf(" [%s]", suggestions[0])
	}
	_, _ = fmt.Fprintf(p.Out, "%s%s: ", title, hint)
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" && len(suggestions) > 0 {
		return suggestions[0], nil
	}
	return line, nil
}

func (p LinePrompter) SelectValue(title string, options []SelectOption) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	labels := make([]string, len(options))
	for i, opt := range options {
		labels[i] = opt.Value
	}
	answer, err := p.Input(fmt.Sprintf("%s (%s)", title, strings.Join(labels, ", ")), labels[:1])
	if err != nil {
		return "", err
	}
	for _, opt := range options {
		if opt.Value == answer {
			return answer, nil
		}
	}
	return "", fmt.Errorf("invalid choice %q", answer)
}

func (p LinePrompter) Confirm(title string) (bool, error) {
	return PromptYesNoWithIO(p.In, p.Out, title)
}
