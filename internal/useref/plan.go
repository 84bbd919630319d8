package useref

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

// Page is an HTML file and its build blocks.
type Page struct {
	Path   string // slash separated, relative to the scanned directory
	Blocks []Block
}

// Asset is one concatenation target.
type Asset struct {
	Type    string
	Target  string   // slash separated, relative to the output directory
	Sources []string // slash separated, relative to the lookup roots
}

// Plan is the result of scanning a set of pages.
type Plan struct {
	Pages  []Page
	Assets []Asset // unique by target, in first-seen order
}

// Prepare scans every page under dir matching pattern.
func Prepare(dir, pattern string) (*Plan, error) {
	files, err := fsutil.Glob(dir, pattern)
	if err != nil {
		return nil, err
	}
	plan := &Plan{}
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, ferrors.FileSystemError("read page").WithCause(err).WithContext("path", rel).Build()
		}
		blocks, err := Scan(data)
		if err != nil {
			if ce, ok := ferrors.AsClassified(err); ok {
				return nil, ce.WithContext("file", rel)
			}
			return nil, err
		}
		if len(blocks) == 0 {
			continue
		}
		plan.Pages = append(plan.Pages, Page{Path: rel, Blocks: blocks})
		for _, b := range blocks {
			if err := plan.add(rel, b); err != nil {
				return nil, err
			}
		}
	}
	return plan, nil
}

func (p *Plan) add(page string, b Block) error {
	if b.Type == TypeRemove {
		return nil
	}
	asset := Asset{Type: b.Type, Target: resolveRef(page, b.Target)}
	if !isLocal(asset.Target) {
		return escapeError(page, "target", b.Target)
	}
	for _, src := range b.Sources {
		ref := resolveRef(page, src)
		if !isLocal(ref) {
			return escapeError(page, "source", src)
		}
		asset.Sources = append(asset.Sources, ref)
	}
	for _, existing := range p.Assets {
		if existing.Target == asset.Target {
			if !slices.Equal(existing.Sources, asset.Sources) {
				slog.Warn("Build block target declared with different sources; keeping the first",
					logfields.File(page), slog.String("target", asset.Target))
			}
			return nil
		}
	}
	p.Assets = append(p.Assets, asset)
	return nil
}

// isLocal reports whether a resolved reference stays below the directory it
// is resolved against.
func isLocal(ref string) bool {
	return ref != "." && filepath.IsLocal(filepath.FromSlash(ref))
}

func escapeError(page, kind, ref string) error {
	return ferrors.ValidationError("build block "+kind+" points outside the site").
		WithContext("file", page).
		WithContext(kind, ref).
		Build()
}

// resolveRef turns a reference written in page into a root-relative path.
// Query strings and fragments are dropped; absolute references are taken
// relative to the site root, others relative to the page.
func resolveRef(page, ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	if strings.HasPrefix(ref, "/") {
		return path.Clean(strings.TrimLeft(ref, "/"))
	}
	return path.Join(path.Dir(page), ref)
}

// Targets returns the output paths under outDir of every asset of type typ.
func (p *Plan) Targets(outDir, typ string) []string {
	var out []string
	for _, a := range p.Assets {
		if a.Type == typ {
			out = append(out, filepath.Join(outDir, filepath.FromSlash(a.Target)))
		}
	}
	return out
}

// Apply rewrites the blocks of every planned page read from srcDir and
// writes the result to the same relative path under outDir. srcDir and
// outDir may be the same directory.
func (p *Plan) Apply(srcDir, outDir string) error {
	for _, page := range p.Pages {
		src := filepath.Join(srcDir, filepath.FromSlash(page.Path))
		data, err := os.ReadFile(src)
		if err != nil {
			return ferrors.FileSystemError("read page").WithCause(err).WithContext("path", src).Build()
		}
		if err := fsutil.WriteFile(filepath.Join(outDir, filepath.FromSlash(page.Path)), Rewrite(data, page.Blocks)); err != nil {
			return err
		}
	}
	return nil
}

// Separator returns the string placed between concatenated parts.
func Separator(typ string) string {
	if typ == TypeJS {
		return ";\n"
	}
	return "\n"
}

// Concat writes every asset into outDir, looking each source up in roots in
// order. Sources found in no root are skipped with a warning. It returns the
// written files.
func (p *Plan) Concat(outDir string, roots ...string) ([]string, error) {
	written := make([]string, 0, len(p.Assets))
	for _, a := range p.Assets {
		if !isLocal(a.Target) {
			return written, escapeError("", "target", a.Target)
		}
		var buf bytes.Buffer
		for _, src := range a.Sources {
			data, err := lookup(src, roots)
			if errors.Is(err, fs.ErrNotExist) {
				slog.Warn("Build block source not found", logfields.File(src), slog.String("target", a.Target))
				continue
			}
			if err != nil {
				return written, ferrors.FileSystemError("read build block source").WithCause(err).WithContext("path", src).Build()
			}
			if buf.Len() > 0 {
				buf.WriteString(Separator(a.Type))
			}
			buf.Write(data)
		}
		dst := filepath.Join(outDir, filepath.FromSlash(a.Target))
		if err := fsutil.WriteFile(dst, buf.Bytes()); err != nil {
			return written, err
		}
		slog.Debug("Concatenated build block", slog.String("target", a.Target), logfields.Files(len(a.Sources)))
		written = append(written, dst)
	}
	return written, nil
}

func lookup(rel string, roots []string) ([]byte, error) {
	for _, root := range roots {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fs.ErrNotExist
}
