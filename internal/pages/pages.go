// Package pages renders HTML page templates with the site data.
//
// Templates use Django-style syntax ({% extends %}, {% include %},
// {% for %}, {{ value|filter }}) and are resolved relative to the source
// directory. A markdown filter renders Markdown strings to HTML.
package pages

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
)

var registerOnce sync.Once

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func registerFilters() {
	registerOnce.Do(func() {
		if pongo2.FilterExists("markdown") {
			_ = pongo2.ReplaceFilter("markdown", markdownFilter)
			return
		}
		_ = pongo2.RegisterFilter("markdown", markdownFilter)
	})
}

func markdownFilter(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(in.String()), &buf); err != nil {
		return nil, &pongo2.Error{Sender: "filter:markdown", OrigError: err}
	}
	return pongo2.AsSafeValue(buf.String()), nil
}

// Renderer renders the page templates found under SrcDir.
type Renderer struct {
	SrcDir string
	Data   map[string]any

	set *pongo2.TemplateSet
}

// NewRenderer creates a renderer for templates rooted at srcDir. A fresh
// template set is used per renderer so edited templates are re-read.
func NewRenderer(srcDir string, data map[string]any) (*Renderer, error) {
	registerFilters()
	loader, err := pongo2.NewLocalFileSystemLoader(srcDir)
	if err != nil {
		return nil, ferrors.FileSystemError("open template directory").WithCause(err).WithContext("path", srcDir).Build()
	}
	return &Renderer{
		SrcDir: srcDir,
		Data:   data,
		set:    pongo2.NewSet("pages", loader),
	}, nil
}

// Render executes the template at rel (relative to SrcDir).
func (r *Renderer) Render(rel string) ([]byte, error) {
	tpl, err := r.set.FromFile(filepath.ToSlash(rel))
	if err != nil {
		return nil, templateError(rel, err)
	}
	out, err := tpl.ExecuteBytes(pongo2.Context(r.Data))
	if err != nil {
		return nil, templateError(rel, err)
	}
	return out, nil
}

// RenderAll renders every page matching pattern into outDir and returns the
// number of pages written. Files whose name starts with an underscore are
// layouts or partials and are not rendered on their own.
func (r *Renderer) RenderAll(pattern, outDir string) (int, error) {
	files, err := fsutil.Glob(r.SrcDir, pattern)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rel := range files {
		if fsutil.IsPartial(rel) {
			continue
		}
		out, err := r.Render(rel)
		if err != nil {
			return n, err
		}
		if err := fsutil.WriteFile(filepath.Join(outDir, filepath.FromSlash(rel)), out); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func templateError(rel string, err error) error {
	return ferrors.TaskError(fmt.Sprintf("render %s", rel)).
		WithCause(err).
		WithContext("file", rel).
		UserAction().
		Build()
}
