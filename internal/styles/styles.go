// Package styles compiles SCSS sources with the Dart Sass executable.
package styles

import (
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
	"git.home.luguber.info/inful/sitepipe/internal/toolexec"
)

// Tool is the executable name of the Sass compiler.
const Tool = "sass"

// Compiler turns the style sources of a project into CSS.
type Compiler struct {
	Tools      toolexec.Runner
	SrcDir     string
	OutDir     string
	Pattern    string
	Production bool
}

// Sources returns the entry stylesheets, partials excluded.
func (c *Compiler) Sources() ([]string, error) {
	files, err := fsutil.Glob(c.SrcDir, c.Pattern)
	if err != nil {
		return nil, err
	}
	entries := files[:0]
	for _, rel := range files {
		if !fsutil.IsPartial(rel) {
			entries = append(entries, rel)
		}
	}
	return entries, nil
}

// Command builds the sass invocation compiling entries in one process.
func (c *Compiler) Command(entries []string) toolexec.Command {
	args := []string{"--load-path=" + c.SrcDir, "--style=expanded"}
	if c.Production {
		args = append(args, "--no-source-map")
	} else {
		args = append(args, "--source-map")
	}
	for _, rel := range entries {
		in := filepath.Join(c.SrcDir, filepath.FromSlash(rel))
		out := filepath.Join(c.OutDir, filepath.FromSlash(fsutil.ReplaceExt(rel, ".css")))
		args = append(args, in+":"+out)
	}
	return toolexec.Command{Name: Tool, Args: args}
}

// Compile runs sass over every entry stylesheet and returns how many were
// compiled.
func (c *Compiler) Compile(ctx context.Context) (int, error) {
	entries, err := c.Sources()
	if err != nil || len(entries) == 0 {
		return 0, err
	}
	if err := c.Tools.Run(ctx, c.Command(entries)); err != nil {
		return 0, err
	}
	return len(entries), nil
}
