package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
)

func parse(t *testing.T, args ...string) (*kong.Context, *CLI) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("sitepipe"),
		kong.Vars{"version": "test"},
		kong.Exit(func(code int) { t.Fatalf("unexpected exit %d", code) }),
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	kctx.BindTo(context.Background(), (*context.Context)(nil))
	kctx.Bind(cli)
	return kctx, cli
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	kctx, _ := parse(t, args...)
	var out bytes.Buffer
	err := kctx.Run(&Global{Out: &out})
	return out.String(), err
}

func TestDefaultsAndOptionResolution(t *testing.T) {
	kctx, cli := parse(t)
	assert.Equal(t, "default", kctx.Command())

	opts, err := cli.Options()
	require.NoError(t, err)
	assert.Equal(t, config.Options{Port: 2080, Branch: "gh-pages"}, opts)

	_, cli = parse(t, "--prod", "--open", "--port", "9000", "--branch", "pages", "build")
	opts, err = cli.Options()
	require.NoError(t, err)
	assert.Equal(t, config.Options{Production: true, Open: true, Port: 9000, Branch: "pages"}, opts)

	_, cli = parse(t, "--branch=", "deploy")
	_, err = cli.Options()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SITEPIPE_PORT", "3000")
	t.Setenv("SITEPIPE_PRODUCTION", "true")
	t.Setenv("SITEPIPE_BRANCH", "site")

	_, cli := parse(t, "build")
	opts, err := cli.Options()
	require.NoError(t, err)
	assert.Equal(t, config.Options{Production: true, Port: 3000, Branch: "site"}, opts)

	_, cli = parse(t, "--port", "4000", "build")
	opts, err = cli.Options()
	require.NoError(t, err)
	assert.Equal(t, 4000, opts.Port)
}

func TestPlanFollowsProductionFlag(t *testing.T) {
	out, err := run(t, "plan", "build")
	require.NoError(t, err)
	assert.Equal(t, " 1. clean\n 2. babel\n 3. sass\n 4. swig\n 5. imagemin\n 6. useref\n 7. concat\n 8. copy\n", out)

	out, err = run(t, "--production", "plan", "build")
	require.NoError(t, err)
	assert.Contains(t, out, " 8. uglify\n 9. cssmin\n10. copy\n11. htmlmin\n")

	_, err = run(t, "plan", "nope")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestTasksListsStepsAndPipelines(t *testing.T) {
	out, err := run(t, "tasks")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 27)
	assert.Contains(t, out, "jshint")
	assert.Contains(t, out, "[compile, browserSync:dev, watch]")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "-C", dir, "init")
	require.NoError(t, err)
	path := filepath.Join(dir, config.DefaultConfigFile)
	assert.Equal(t, "Wrote "+path+"\n", out)
	assert.FileExists(t, path)

	_, err = run(t, "-C", dir, "init")
	require.Error(t, err)
	assert.Equal(t, 2, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))

	_, err = run(t, "-C", dir, "init", "--force")
	require.NoError(t, err)
}

func TestRunStepOnProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, fsutil.WriteFile(filepath.Join(dir, "src", "assets", "scripts", "app.js"), []byte("let x = () => 1;\n")))

	_, err := run(t, "-C", dir, "--prod", "run", "babel", "copy:public")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "temp", "assets", "scripts", "app.js"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sourceMappingURL")
}

func TestRunFailureExitCode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, fsutil.WriteFile(filepath.Join(dir, "src", "assets", "scripts", "bad.js"), []byte("let = ;\n")))

	_, err := run(t, "-C", dir, "run", "babel")
	require.Error(t, err)
	assert.Equal(t, 11, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))

	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultConfigFile), []byte("build: [\n"), 0o644))
	_, err = run(t, "-C", dir, "run", "babel")
	require.Error(t, err)
	assert.Equal(t, 7, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}
