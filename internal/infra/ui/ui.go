// Where: cli/internal/infra/ui/ui.go
// What: High-level output surface for workflows.
// Why: Keep the orchestrator independent from terminal formatting.
package ui

import (
	"io"
)

// KeyValue is a key/value pair rendered inside a block.
type KeyValue struct {
	Key   string
	Value any
}

// UserInterface exposes high-level output helpers used by workflows.
type UserInterface interface {
	Info(msg string)
	Warn(msg string)
	Success(msg string)
	Step(index, total int, title string)
	Block(emoji, title string, rows []KeyValue)
}

// NewDeployUI returns a UserInterface writing to out.
func NewDeployUI(out io.Writer, emojiEnabled bool) UserInterface {
	return deployUI{console: NewWithEmoji(out, emojiEnabled)}
}

type deployUI struct {
	console *Console
}

func (d deployUI) Info(msg string) {
	d.console.Info(msg)
}

func (d deployUI) Warn(msg string) {
	d.console.Warn(msg)
}

func (d deployUI) Success(msg string) {
	d.console.Success(msg)
}

func (d deployUI) Step(index, total int, title string) {
	d.console.Step(index, total, title)
}

func (d deployUI) Block(emoji, title string, rows []KeyValue) {
	d.console.BlockStart(emoji, title)
	for _, kv := range rows {
		d.console.Item(kv.Key, kv.Value)
	}
	d.console.BlockEnd()
}

// Discard is a UserInterface that prints nothing.
var Discard UserInterface = NewDeployUI(io.Discard, false)
