package minifier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
)

func TestBytes(t *testing.T) {
	m := New()

	out, err := m.Bytes(MediaCSS, []byte("body {\n  color: #ff0000;\n  margin: 0px;\n}\n"))
	require.NoError(t, err)
	assert.Equal(t, "body{color:red;margin:0}", string(out))

	out, err = m.Bytes(MediaJS, []byte("function add(first, second) {\n  // sum\n  return first + second;\n}\n"))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "// sum")
	assert.Less(t, len(out), 50)
}

func TestHTMLInlineAssetsAndComments(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
  <head>
    <style>
      body { color: #ff0000; }
    </style>
  </head>
  <body>
    <!-- navigation -->
    <p class="lead">   Hello    world   </p>
    <script>
      var answer = 40 + 2;
    </script>
  </body>
</html>
`
	out, err := New().Bytes(MediaHTML, []byte(page))
	require.NoError(t, err)
	s := string(out)
	assert.NotContains(t, s, "navigation")
	assert.Contains(t, s, "body{color:red}")
	assert.Contains(t, s, `class="lead"`)
	assert.Contains(t, s, "</body>")
	assert.NotContains(t, s, "\n    ")
}

func TestMediaType(t *testing.T) {
	for path, want := range map[string]string{
		"a.css": MediaCSS, "a.js": MediaJS, "a.html": MediaHTML, "icons/x.svg": MediaSVG,
	} {
		got, ok := MediaType(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	_, ok := MediaType("photo.png")
	assert.False(t, ok)
}

func TestTreeAndFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, fsutil.WriteFile(filepath.Join(src, "index.html"), []byte("<p>  a  </p>\n<!-- c -->\n")))
	require.NoError(t, fsutil.WriteFile(filepath.Join(src, "assets/x.css"), []byte("a { color : blue ; }")))

	m := New()
	n, err := m.Tree(src, "*.html", dst)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	data, err := os.ReadFile(filepath.Join(dst, "index.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "<!--")

	css := filepath.Join(src, "assets/x.css")
	require.NoError(t, m.Files([]string{css}))
	data, err = os.ReadFile(css)
	require.NoError(t, err)
	assert.Equal(t, "a{color:blue}", strings.TrimSpace(string(data)))

	assert.Error(t, m.File(filepath.Join(src, "missing.png"), filepath.Join(dst, "x.png")))
}
