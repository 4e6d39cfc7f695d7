package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrNoCommand = errors.New("no checker command configured")

// Checker runs the external type checker over one file.
type Checker interface {
	Check(ctx context.Context, path string, content []byte) ([]Diagnostic, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, path string, content []byte) ([]Diagnostic, error)

func (f CheckerFunc) Check(ctx context.Context, path string, content []byte) ([]Diagnostic, error) {
	return f(ctx, path, content)
}

// CommandChecker execs Command with the file path appended, feeds the current
// content on stdin and reads a JSON array of findings from stdout.
type CommandChecker struct {
	Command []string
	Dir     string
}

func NewCommandChecker(command []string, dir string) (*CommandChecker, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, ErrNoCommand
	}
	return &CommandChecker{Command: command, Dir: dir}, nil
}

func (c *CommandChecker) Check(ctx context.Context, path string, content []byte) ([]Diagnostic, error) {
	args := append(append([]string(nil), c.Command[1:]...), path)
	cmd := exec.CommandContext(ctx, c.Command[0], args...) //nolint:gosec // command comes from project config
	cmd.Dir = c.Dir
	cmd.Stdin = bytes.NewReader(content)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", c.Command[0], err, msg)
		}
		return nil, fmt.Errorf("%s: %w", c.Command[0], err)
	}
	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, nil
	}
	ds, err := DecodeDiagnostics(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Command[0], err)
	}
	return ds, nil
}
