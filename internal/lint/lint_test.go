package lint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
	"git.home.luguber.info/inful/sitepipe/internal/toolexec"
)

func newLinter(t *testing.T, withConfig bool) (*Linter, *toolexec.Recorder) {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{"src/assets/styles/main.scss", "src/assets/scripts/main.js", "src/assets/scripts/util.js"} {
		require.NoError(t, fsutil.WriteFile(filepath.Join(root, rel), []byte("x")))
	}
	if withConfig {
		require.NoError(t, fsutil.WriteFile(filepath.Join(root, ".stylelintrc"), []byte("{}")))
		require.NoError(t, fsutil.WriteFile(filepath.Join(root, ".jshintrc"), []byte("{}")))
	}
	rec := &toolexec.Recorder{}
	return &Linter{Tools: rec, Root: root, SrcDir: "src"}, rec
}

func TestStyles(t *testing.T) {
	l, rec := newLinter(t, true)
	require.NoError(t, l.Styles(context.Background(), "assets/styles/*.scss", ".stylelintrc"))
	require.Len(t, rec.Commands, 1)
	cmd := rec.Commands[0]
	assert.Equal(t, Stylelint, cmd.Name)
	assert.Equal(t, []string{"--fix", "--formatter", "string", "--config", ".stylelintrc", filepath.Join("src", "assets", "styles", "main.scss")}, cmd.Args)
	assert.Equal(t, l.Root, cmd.Dir)
}

func TestStylesWithoutConfigFile(t *testing.T) {
	l, rec := newLinter(t, false)
	require.NoError(t, l.Styles(context.Background(), "assets/styles/*.scss", ".stylelintrc"))
	assert.NotContains(t, rec.Commands[0].Args, "--config")
}

func TestScripts(t *testing.T) {
	l, rec := newLinter(t, true)
	require.NoError(t, l.Scripts(context.Background(), "assets/scripts/*.js"))
	require.NoError(t, l.ScriptsJSHint(context.Background(), "assets/scripts/*.js", ".jshintrc"))
	assert.Equal(t, []string{ESLint, JSHint}, rec.Names())
	assert.Len(t, rec.Commands[0].Args, 2)
	assert.Equal(t, []string{"--config", ".jshintrc"}, rec.Commands[1].Args[:2])
}

func TestNoFilesSkipsTool(t *testing.T) {
	l, rec := newLinter(t, false)
	require.NoError(t, l.Scripts(context.Background(), "assets/scripts/*.ts"))
	assert.Empty(t, rec.Commands)
}

func TestLintFailurePropagates(t *testing.T) {
	l, rec := newLinter(t, false)
	rec.Fn = func(cmd toolexec.Command) error {
		return ferrors.ToolError(cmd.Name + " failed").Build()
	}
	err := l.Scripts(context.Background(), "assets/scripts/*.js")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryTool))
}
