package deploy

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
	"git.home.luguber.info/inful/sitepipe/internal/retry"
)

type fixture struct {
	root, bare string
	opts       Options
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	bare := filepath.Join(t.TempDir(), "site.git")
	_, err := git.PlainInit(bare, true)
	require.NoError(t, err)

	project, err := git.PlainInit(root, false)
	require.NoError(t, err)
	_, err = project.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{bare}})
	require.NoError(t, err)

	return fixture{
		root: root,
		bare: bare,
		opts: Options{
			ProjectRoot: root,
			DistDir:     filepath.Join(root, "dist"),
			CacheDir:    filepath.Join(root, ".sitepipe", "gh-pages"),
			Branch:      "gh-pages",
			Remote:      "origin",
			Message:     "Updates",
			UserName:    "Site Bot",
			Email:       "bot@example.com",
		},
	}
}

func (f fixture) writeDist(t *testing.T, files map[string]string) {
	t.Helper()
	require.NoError(t, fsutil.RemoveAll(f.opts.DistDir))
	for rel, body := range files {
		require.NoError(t, fsutil.WriteFile(filepath.Join(f.opts.DistDir, filepath.FromSlash(rel)), []byte(body)))
	}
}

// branchFiles returns the file contents at the tip of the deploy branch in
// the bare repository.
func (f fixture) branchFiles(t *testing.T) (map[string]string, *object.Commit) {
	t.Helper()
	repo, err := git.PlainOpen(f.bare)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(f.opts.Branch), true)
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	tree, err := commit.Tree()
	require.NoError(t, err)

	out := map[string]string{}
	require.NoError(t, tree.Files().ForEach(func(file *object.File) error {
		body, err := file.Contents()
		if err != nil {
			return err
		}
		out[file.Name] = body
		return nil
	}))
	return out, commit
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestPublishCreatesBranch(t *testing.T) {
	f := newFixture(t)
	f.writeDist(t, map[string]string{
		"index.html":             "<h1>home</h1>",
		"assets/styles/main.css": "body{}",
		".nojekyll":              "",
	})

	res, err := Publish(context.Background(), f.opts)
	require.NoError(t, err)
	assert.True(t, res.Pushed)
	assert.Equal(t, 3, res.Files)
	assert.Equal(t, f.bare, res.URL)
	assert.Len(t, res.Commit, 40)

	files, commit := f.branchFiles(t)
	assert.Equal(t, []string{".nojekyll", "assets/styles/main.css", "index.html"}, keys(files))
	assert.Equal(t, "<h1>home</h1>", files["index.html"])
	assert.Equal(t, "Updates", commit.Message)
	assert.Equal(t, "Site Bot", commit.Author.Name)
	assert.Equal(t, "bot@example.com", commit.Author.Email)
	assert.Equal(t, res.Commit, commit.Hash.String())
}

func TestPublishReplacesPreviousTree(t *testing.T) {
	f := newFixture(t)
	f.writeDist(t, map[string]string{"index.html": "v1", "old.html": "gone soon"})
	_, err := Publish(context.Background(), f.opts)
	require.NoError(t, err)

	f.writeDist(t, map[string]string{"index.html": "v2", "new/page.html": "fresh"})
	res, err := Publish(context.Background(), f.opts)
	require.NoError(t, err)
	require.True(t, res.Pushed)

	files, commit := f.branchFiles(t)
	assert.Equal(t, []string{"index.html", "new/page.html"}, keys(files))
	assert.Equal(t, "v2", files["index.html"])
	assert.Equal(t, 1, commit.NumParents())
}

func TestPublishUnchangedSkipsCommit(t *testing.T) {
	f := newFixture(t)
	f.writeDist(t, map[string]string{"index.html": "same"})
	first, err := Publish(context.Background(), f.opts)
	require.NoError(t, err)

	second, err := Publish(context.Background(), f.opts)
	require.NoError(t, err)
	assert.False(t, second.Pushed)
	assert.Empty(t, second.Commit)

	_, commit := f.branchFiles(t)
	assert.Equal(t, first.Commit, commit.Hash.String())
}

func TestPublishRepoOverride(t *testing.T) {
	f := newFixture(t)
	other := filepath.Join(t.TempDir(), "other.git")
	_, err := git.PlainInit(other, true)
	require.NoError(t, err)

	f.opts.RepoURL = other
	f.opts.ProjectRoot = t.TempDir() // not a repository; must not be consulted
	f.writeDist(t, map[string]string{"index.html": "x"})

	res, err := Publish(context.Background(), f.opts)
	require.NoError(t, err)
	assert.Equal(t, other, res.URL)

	f.bare = other
	files, _ := f.branchFiles(t)
	assert.Equal(t, "x", files["index.html"])
}

func TestPublishMissingOrEmptyDist(t *testing.T) {
	f := newFixture(t)
	_, err := Publish(context.Background(), f.opts)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	f.writeDist(t, nil)
	require.NoError(t, fsutil.WriteFile(filepath.Join(f.opts.DistDir, "empty", ".keep"), nil))
	require.NoError(t, fsutil.RemoveAll(filepath.Join(f.opts.DistDir, "empty", ".keep")))
	_, err = Publish(context.Background(), f.opts)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestPublishRejectsInvalidRetryPolicy(t *testing.T) {
	f := newFixture(t)
	f.writeDist(t, map[string]string{"index.html": "x"})
	f.opts.Retry = retry.Policy{Mode: retry.ModeLinear, MaxRetries: 3}

	res, err := Publish(context.Background(), f.opts)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	assert.False(t, res.Pushed)

	repo, err := git.PlainOpen(f.bare)
	require.NoError(t, err)
	_, err = repo.Reference(plumbing.NewBranchReferenceName(f.opts.Branch), true)
	assert.ErrorIs(t, err, plumbing.ErrReferenceNotFound)
}

func TestRemoteURLErrors(t *testing.T) {
	_, err := RemoteURL(Options{ProjectRoot: t.TempDir(), Remote: "origin"})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryGit))

	f := newFixture(t)
	f.opts.Remote = "upstream"
	_, err = RemoteURL(f.opts)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryGit))
}

func TestAuthFromEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "secret")

	assert.Nil(t, authFromEnv("/srv/site.git"))
	assert.Nil(t, authFromEnv("git@github.com:me/site.git"))

	auth, ok := authFromEnv("https://github.com/me/site.git").(*http.BasicAuth)
	require.True(t, ok)
	assert.Equal(t, "secret", auth.Password)

	t.Setenv("GH_TOKEN", "")
	assert.Nil(t, authFromEnv("https://github.com/me/site.git"))
}

func TestTransientPush(t *testing.T) {
	assert.True(t, transientPush(errors.New("connection reset by peer")))
	assert.False(t, transientPush(context.Canceled))
	assert.False(t, transientPush(fmt.Errorf("push: %w", transport.ErrAuthenticationRequired)))
	assert.False(t, transientPush(git.ErrNonFastForwardUpdate))
}
