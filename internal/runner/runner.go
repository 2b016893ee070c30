// Package runner invokes external command-line programs such as the gmx
// simulation binary, either directly on the host or inside a container.
package runner

import (
	"context"
	"errors"
	"strings"
)

var ErrNoBinary = errors.New("runner: no binary configured")

// Command is one invocation: sub-command, ordered arguments, working
// directory and the answers fed to interactive prompts, in order.
type Command struct {
	SubCommand string
	Args       []string
	Dir        string
	Prompts    []string
}

// Argv returns the argument vector following the binary name.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	if c.SubCommand != "" {
		argv = append(argv, c.SubCommand)
	}
	return append(argv, c.Args...)
}

// Stdin is the text written to the program's standard input.
func (c Command) Stdin() string {
	if len(c.Prompts) == 0 {
		return ""
	}
	return strings.Join(c.Prompts, "\n") + "\n"
}

// Outcome is what a finished program left behind. A program that ran but
// exited non-zero is an Outcome with Success false, not an error.
type Outcome struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner starts a program and waits for it. Errors are transport failures:
// the program could not be started, or ctx was cancelled.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Outcome, error)
}
