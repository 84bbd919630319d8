// Package scripts transpiles modern JavaScript sources down to ES2015.
package scripts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

// Transpile converts one script. Development builds carry an inline source
// map; production builds do not.
func Transpile(code []byte, sourcefile string, production bool) ([]byte, error) {
	opts := api.TransformOptions{
		Loader:     api.LoaderJS,
		Target:     api.ES2015,
		Sourcefile: sourcefile,
		Sourcemap:  api.SourceMapInline,
	}
	if production {
		opts.Sourcemap = api.SourceMapNone
	}
	result := api.Transform(string(code), opts)
	if len(result.Errors) > 0 {
		return nil, syntaxError(sourcefile, result.Errors)
	}
	for _, w := range result.Warnings {
		slog.Warn("Script warning", logfields.File(sourcefile), slog.String("message", w.Text))
	}
	return result.Code, nil
}

// Compile transpiles every file under srcDir matching pattern into outDir,
// keeping relative paths. It returns the number of files written.
func Compile(srcDir, outDir, pattern string, production bool) (int, error) {
	files, err := fsutil.Glob(srcDir, pattern)
	if err != nil {
		return 0, err
	}
	for _, rel := range files {
		code, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(rel)))
		if err != nil {
			return 0, ferrors.FileSystemError("read script").WithCause(err).WithContext("path", rel).Build()
		}
		out, err := Transpile(code, rel, production)
		if err != nil {
			return 0, err
		}
		if err := fsutil.WriteFile(filepath.Join(outDir, filepath.FromSlash(rel)), out); err != nil {
			return 0, err
		}
	}
	return len(files), nil
}

func syntaxError(file string, msgs []api.Message) error {
	first := msgs[0]
	where := file
	if loc := first.Location; loc != nil {
		where = fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column)
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.Text)
	}
	return ferrors.TaskError(fmt.Sprintf("%s: %s", where, first.Text)).
		WithContext("file", file).
		WithContext("errors", strings.Join(lines, "; ")).
		UserAction().
		Build()
}
