// Package toolexec runs the external executables some steps delegate to
// (sass, stylelint, eslint, jshint). Project-local binaries installed under
// node_modules/.bin take precedence over PATH.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

// Command describes one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string // defaults to the runner's root

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	root string
}

// NewExecRunner creates a runner resolving project binaries under root.
func NewExecRunner(root string) *ExecRunner {
	return &ExecRunner{root: root}
}

// Lookup resolves name to an executable path: node_modules/.bin first, then PATH.
func (r *ExecRunner) Lookup(name string) (string, error) {
	local := filepath.Join(r.root, "node_modules", ".bin", name)
	if info, err := os.Stat(local); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
		return local, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", ferrors.ToolError(fmt.Sprintf("%s not found", name)).
			WithCause(err).
			WithContext("tool", name).
			WithContext("hint", "install it with npm or add it to PATH").
			Build()
	}
	return path, nil
}

// Run executes cmd and waits for it. A non-zero exit becomes a tool error
// carrying the tail of stderr.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	path, err := r.Lookup(cmd.Name)
	if err != nil {
		return err
	}

	c := exec.CommandContext(ctx, path, cmd.Args...)
	c.Dir = cmd.Dir
	if c.Dir == "" {
		c.Dir = r.root
	}
	c.Stdout = cmd.Stdout
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	var tail bytes.Buffer
	stderr := cmd.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	c.Stderr = io.MultiWriter(stderr, &tail)

	slog.Debug("Running external tool", logfields.Tool(cmd.Name), slog.String("command", cmd.String()))
	if err := c.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		b := ferrors.ToolError(fmt.Sprintf("%s failed", cmd.Name)).
			WithCause(err).
			WithContext("tool", cmd.Name).
			WithContext("command", cmd.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			b = b.WithContext("exit_code", exitErr.ExitCode())
		}
		if s := lastLines(tail.String(), 20); s != "" {
			b = b.WithContext("stderr", s)
		}
		return b.Build()
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
