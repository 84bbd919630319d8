// Package fsutil contains the file helpers shared by the build steps: glob
// expansion over a base directory and tree copies that preserve modes.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
)

// Glob expands pattern (doublestar syntax, slash separated) against base and
// returns the matching regular files as slash-separated paths relative to
// base, sorted. A missing base directory yields no matches.
func Glob(base, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, ferrors.ValidationError(fmt.Sprintf("invalid glob %q", pattern)).Build()
	}
	if _, err := os.Stat(base); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	fsys := os.DirFS(base)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, ferrors.ValidationError(fmt.Sprintf("invalid glob %q", pattern)).WithCause(err).Build()
	}
	files := matches[:0]
	for _, m := range matches {
		info, err := fs.Stat(fsys, m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

// Match reports whether a slash-separated relative path matches pattern.
func Match(pattern, rel string) bool {
	ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

// Base returns the static directory prefix of a glob pattern:
// "assets/images/**" yields "assets/images".
func Base(pattern string) string {
	base, _ := doublestar.SplitPattern(pattern)
	if base == "." {
		return ""
	}
	return base
}

// IsPartial reports whether a file name starts with an underscore.
func IsPartial(rel string) bool {
	return strings.HasPrefix(path.Base(filepath.ToSlash(rel)), "_")
}

// ReplaceExt swaps the extension of p.
func ReplaceExt(p, ext string) string {
	return strings.TrimSuffix(p, path.Ext(p)) + ext
}

// WriteFile writes data to dst, creating parent directories.
func WriteFile(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ferrors.FileSystemError("create directory").WithCause(err).WithContext("path", filepath.Dir(dst)).Build()
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return ferrors.FileSystemError("write file").WithCause(err).WithContext("path", dst).Build()
	}
	return nil
}

// CopyFile copies a single file from src to dst, creating parent directories
// and preserving the file mode.
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return ferrors.FileSystemError("open source file").WithCause(err).WithContext("path", src).Build()
	}
	defer func() {
		_ = srcFile.Close()
	}()
	srcInfo, err := srcFile.Stat()
	if err != nil {
		return ferrors.FileSystemError("stat source file").WithCause(err).WithContext("path", src).Build()
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ferrors.FileSystemError("create directory").WithCause(err).WithContext("path", filepath.Dir(dst)).Build()
	}
	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return ferrors.FileSystemError("create destination file").WithCause(err).WithContext("path", dst).Build()
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return ferrors.FileSystemError("copy file").WithCause(err).WithContext("path", dst).Build()
	}
	if err := dstFile.Close(); err != nil {
		return ferrors.FileSystemError("close destination file").WithCause(err).WithContext("path", dst).Build()
	}
	if err := os.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		return ferrors.FileSystemError("set file mode").WithCause(err).WithContext("path", dst).Build()
	}
	return nil
}

// CopyTree recursively copies src into dst. Files for which skip returns
// true (given their slash-separated path relative to src) are left out.
// It returns the number of files copied; a missing src copies nothing.
func CopyTree(src, dst string, skip func(rel string) bool) (int, error) {
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	count := 0
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if skip != nil && skip(rel) {
			return nil
		}
		count++
		return CopyFile(p, filepath.Join(dst, filepath.FromSlash(rel)))
	})
	if err != nil {
		if ferrors.IsClassified(err) {
			return count, err
		}
		return count, ferrors.FileSystemError("copy directory").WithCause(err).WithContext("path", src).Build()
	}
	return count, nil
}

// CopyMatches copies every file under base matching pattern into dst,
// keeping relative paths. It returns the number of files copied.
func CopyMatches(base, pattern, dst string) (int, error) {
	files, err := Glob(base, pattern)
	if err != nil {
		return 0, err
	}
	for _, rel := range files {
		if err := CopyFile(filepath.Join(base, filepath.FromSlash(rel)), filepath.Join(dst, filepath.FromSlash(rel))); err != nil {
			return 0, err
		}
	}
	return len(files), nil
}

// RemoveWithin deletes the given directories, refusing root itself and any
// path that is not below root. Missing directories are ignored.
func RemoveWithin(root string, dirs ...string) error {
	for _, d := range dirs {
		rel, err := filepath.Rel(root, d)
		if err != nil || rel == "." || !filepath.IsLocal(rel) {
			return ferrors.ValidationError("refusing to remove a directory outside the project").
				WithContext("path", d).
				WithContext("root", root).
				Build()
		}
	}
	return RemoveAll(dirs...)
}

// RemoveAll deletes the given directories. Missing directories are ignored.
func RemoveAll(dirs ...string) error {
	for _, d := range dirs {
		if err := os.RemoveAll(d); err != nil {
			return ferrors.FileSystemError("remove directory").WithCause(err).WithContext("path", d).Build()
		}
	}
	return nil
}
