// Package lint runs the external style and script linters over the project
// sources.
package lint

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/toolexec"
)

// Linter executable names.
const (
	Stylelint = "stylelint"
	ESLint    = "eslint"
	JSHint    = "jshint"
)

// Linter builds and runs linter invocations for one project.
type Linter struct {
	Tools  toolexec.Runner
	Root   string // project root; file arguments are relative to it
	SrcDir string // source directory, relative to Root
}

// files returns the files matching pattern under SrcDir as root-relative
// paths.
func (l *Linter) files(pattern string) ([]string, error) {
	matches, err := fsutil.Glob(filepath.Join(l.Root, l.SrcDir), pattern)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(l.SrcDir, filepath.FromSlash(m)))
	}
	return out, nil
}

// configArgs returns flag followed by cfg when cfg exists under Root, so the
// tool falls back to its own config discovery otherwise.
func (l *Linter) configArgs(flag, cfg string) []string {
	if cfg == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Join(l.Root, cfg)); err != nil {
		return nil
	}
	return []string{flag, cfg}
}

func (l *Linter) run(ctx context.Context, tool string, args []string, pattern string) error {
	files, err := l.files(pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		slog.Info("No files to lint", logfields.Tool(tool))
		return nil
	}
	cmd := toolexec.Command{Name: tool, Args: append(args, files...), Dir: l.Root}
	if err := l.Tools.Run(ctx, cmd); err != nil {
		return err
	}
	slog.Info("Lint passed", logfields.Tool(tool), logfields.Files(len(files)))
	return nil
}

// Styles runs stylelint with fixes applied and the string formatter.
func (l *Linter) Styles(ctx context.Context, pattern, cfg string) error {
	args := append([]string{"--fix", "--formatter", "string"}, l.configArgs("--config", cfg)...)
	return l.run(ctx, Stylelint, args, pattern)
}

// Scripts runs eslint.
func (l *Linter) Scripts(ctx context.Context, pattern string) error {
	return l.run(ctx, ESLint, nil, pattern)
}

// ScriptsJSHint runs jshint.
func (l *Linter) ScriptsJSHint(ctx context.Context, pattern, cfg string) error {
	return l.run(ctx, JSHint, l.configArgs("--config", cfg), pattern)
}
