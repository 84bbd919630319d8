// Package minifier minifies the text assets of a build: scripts, style
// sheets, SVG images and HTML pages (including their inline styles and
// scripts).
package minifier

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
)

// Media types understood by the minifier.
const (
	MediaCSS  = "text/css"
	MediaJS   = "application/javascript"
	MediaHTML = "text/html"
	MediaSVG  = "image/svg+xml"
)

// Minifier wraps a configured minify.M.
type Minifier struct {
	m *minify.M
}

// New creates a minifier. HTML output keeps document and end tags and
// attribute quotes so the result stays valid for downstream tooling; comments
// are dropped and whitespace is collapsed.
func New() *Minifier {
	m := minify.New()
	m.AddFunc(MediaCSS, css.Minify)
	m.Add(MediaHTML, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc(MediaSVG, svg.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return &Minifier{m: m}
}

// Bytes minifies b as mediatype.
func (m *Minifier) Bytes(mediatype string, b []byte) ([]byte, error) {
	return m.m.Bytes(mediatype, b)
}

// MediaType maps a file extension to the media type used for minification.
func MediaType(path string) (string, bool) {
	switch filepath.Ext(path) {
	case ".css":
		return MediaCSS, true
	case ".js", ".mjs":
		return MediaJS, true
	case ".html", ".htm":
		return MediaHTML, true
	case ".svg":
		return MediaSVG, true
	}
	return "", false
}

// File minifies src into dst (which may be the same path).
func (m *Minifier) File(src, dst string) error {
	mediatype, ok := MediaType(src)
	if !ok {
		return ferrors.ValidationError(fmt.Sprintf("cannot minify %s", filepath.Base(src))).Build()
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return ferrors.FileSystemError("read asset").WithCause(err).WithContext("path", src).Build()
	}
	out, err := m.Bytes(mediatype, data)
	if err != nil {
		return ferrors.TaskError(fmt.Sprintf("minify %s", filepath.Base(src))).
			WithCause(err).
			WithContext("path", src).
			Build()
	}
	return fsutil.WriteFile(dst, out)
}

// Files minifies every path in place.
func (m *Minifier) Files(paths []string) error {
	for _, p := range paths {
		if err := m.File(p, p); err != nil {
			return err
		}
	}
	return nil
}

// Tree minifies every file under srcDir matching pattern into dstDir,
// keeping relative paths. It returns the number of files written.
func (m *Minifier) Tree(srcDir, pattern, dstDir string) (int, error) {
	files, err := fsutil.Glob(srcDir, pattern)
	if err != nil {
		return 0, err
	}
	for _, rel := range files {
		src := filepath.Join(srcDir, filepath.FromSlash(rel))
		if err := m.File(src, filepath.Join(dstDir, filepath.FromSlash(rel))); err != nil {
			return 0, err
		}
	}
	return len(files), nil
}
