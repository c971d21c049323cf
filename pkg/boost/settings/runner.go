package settings

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yaklabco/stave/pkg/sh"
)

// Runner executes an external command and returns its trimmed stdout.
type Runner interface {
	Output(cmd string, args ...string) (string, error)
}

// ShellRunner runs commands through stave's sh helpers. Stderr is captured
// into the error rather than echoed to the terminal.
type ShellRunner struct{}

// Output implements Runner.
func (ShellRunner) Output(cmd string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	ran, err := sh.Exec(nil, nil, &stdout, &stderr, cmd, args...)
	out := strings.TrimSpace(stdout.String())
	if err != nil {
		if !ran {
			return out, fmt.Errorf("%s: %w", cmd, err)
		}
		return out, &CommandError{
			Cmd:    cmd,
			Status: sh.ExitStatus(err),
			Stderr: strings.TrimSpace(stderr.String()),
		}
	}
	return out, nil
}

// CommandError reports a command that ran and exited non-zero.
type CommandError struct {
	Cmd    string
	Status int
	Stderr string
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Cmd, e.Status)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Cmd, e.Status, e.Stderr)
}

// shellQuote single-quotes s for sh -c.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
