package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	require.NoError(t, WriteFile(filepath.Join(root, filepath.FromSlash(rel)), []byte(content)))
}

func TestGlob(t *testing.T) {
	root := t.TempDir()
	write(t, root, "assets/styles/main.scss", "a")
	write(t, root, "assets/styles/_vars.scss", "b")
	write(t, root, "assets/images/logo.png", "c")
	write(t, root, "assets/images/icons/x.svg", "d")
	write(t, root, "index.html", "e")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets/images/empty"), 0o755))

	got, err := Glob(root, "assets/styles/*.scss")
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/styles/_vars.scss", "assets/styles/main.scss"}, got)

	got, err = Glob(root, "assets/images/**")
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/images/icons/x.svg", "assets/images/logo.png"}, got)

	got, err = Glob(filepath.Join(root, "missing"), "*.html")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Glob(root, "[")
	assert.Error(t, err)
}

func TestPatternHelpers(t *testing.T) {
	assert.True(t, Match("assets/scripts/*.js", "assets/scripts/main.js"))
	assert.False(t, Match("assets/scripts/*.js", "assets/scripts/lib/x.js"))
	assert.True(t, Match("assets/images/**", "assets/images/a/b.png"))
	assert.Equal(t, "assets/images", Base("assets/images/**"))
	assert.Equal(t, "", Base("*.html"))
	assert.True(t, IsPartial("assets/styles/_vars.scss"))
	assert.False(t, IsPartial("assets/_styles/main.scss"))
	assert.Equal(t, "assets/styles/main.css", ReplaceExt("assets/styles/main.scss", ".css"))
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	write(t, src, "favicon.ico", "icon")
	write(t, src, "docs/readme.txt", "hello")
	write(t, src, "docs/skip.tmp", "x")
	require.NoError(t, os.Chmod(filepath.Join(src, "favicon.ico"), 0o600))

	n, err := CopyTree(src, dst, func(rel string) bool { return filepath.Ext(rel) == ".tmp" })
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(filepath.Join(dst, "docs/readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.NoFileExists(t, filepath.Join(dst, "docs/skip.tmp"))

	info, err := os.Stat(filepath.Join(dst, "favicon.ico"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	n, err = CopyTree(filepath.Join(src, "nope"), dst, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCopyMatchesAndRemoveAll(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "dist")
	write(t, src, "assets/fonts/a.woff", "f")
	write(t, src, "assets/fonts/sub/b.woff2", "g")

	n, err := CopyMatches(src, "assets/fonts/**", dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(dst, "assets/fonts/sub/b.woff2"))

	require.NoError(t, RemoveAll(dst, filepath.Join(src, "never-existed")))
	assert.NoDirExists(t, dst)
}

func TestRemoveWithinRefusesRootAndOutside(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/index.html", "<p>")
	write(t, root, "dist/index.html", "<p>")

	for _, dir := range []string{root, filepath.Dir(root), filepath.Join(root, "..", "other")} {
		err := RemoveWithin(root, filepath.Join(root, "dist"), dir)
		require.Error(t, err, dir)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	}
	assert.FileExists(t, filepath.Join(root, "src/index.html"))
	assert.FileExists(t, filepath.Join(root, "dist/index.html"), "nothing is removed when any path is refused")

	require.NoError(t, RemoveWithin(root, filepath.Join(root, "dist")))
	assert.NoDirExists(t, filepath.Join(root, "dist"))
	assert.FileExists(t, filepath.Join(root, "src/index.html"))
}

func TestCopyFileReportsWriteFailures(t *testing.T) {
	src := t.TempDir()
	write(t, src, "a.txt", "short")
	dst := filepath.Join(t.TempDir(), "a.txt")
	write(t, filepath.Dir(dst), "a.txt", "a much longer previous body")

	require.NoError(t, CopyFile(filepath.Join(src, "a.txt"), dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "short", string(data))

	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full on this platform")
	}
	err = CopyFile(filepath.Join(src, "a.txt"), "/dev/full")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}
