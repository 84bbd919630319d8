// Package deploy publishes a built site to a branch of a git remote, the
// way GitHub Pages sites are served from a gh-pages branch.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/retry"
)

const (
	defaultAuthor = "sitepipe"
	defaultEmail  = "sitepipe@localhost"
	remoteName    = "origin"
)

// Options describes one publication.
type Options struct {
	ProjectRoot string // repository the remote URL is read from
	DistDir     string // directory whose contents become the branch tree
	CacheDir    string // working clone of the deploy branch
	Branch      string
	Remote      string // remote name in the project repository
	RepoURL     string // overrides the remote's URL when set
	Message     string
	UserName    string
	Email       string

	// Auth overrides credentials; by default GITHUB_TOKEN or GH_TOKEN is
	// used for HTTP remotes.
	Auth transport.AuthMethod

	// Retry governs re-pushing after network failures. The zero value
	// pushes once.
	Retry retry.Policy
}

// Result reports what a publication did.
type Result struct {
	URL    string
	Commit string // empty when nothing changed
	Files  int
	Pushed bool
}

// Publish replaces the deploy branch contents with DistDir, commits and
// pushes. When the tree is unchanged nothing is committed or pushed.
func Publish(ctx context.Context, opts Options) (Result, error) {
	if opts.Retry.MaxRetries != 0 {
		if err := opts.Retry.Validate(); err != nil {
			return Result{}, ferrors.ValidationError("invalid push retry policy").WithCause(err).Build()
		}
	}
	files, err := countFiles(opts.DistDir)
	if err != nil {
		return Result{}, err
	}
	if files == 0 {
		return Result{}, ferrors.ValidationError("nothing to deploy: output directory is empty").
			WithContext("path", opts.DistDir).
			Build()
	}

	url, err := RemoteURL(opts)
	if err != nil {
		return Result{}, err
	}
	auth := opts.Auth
	if auth == nil {
		auth = authFromEnv(url)
	}
	res := Result{URL: url, Files: files}

	repo, err := checkout(ctx, opts, url, auth)
	if err != nil {
		return res, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return res, gitError("open worktree", err, opts)
	}
	if err := replaceTree(opts.CacheDir, opts.DistDir); err != nil {
		return res, err
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return res, gitError("stage files", err, opts)
	}
	status, err := wt.Status()
	if err != nil {
		return res, gitError("read status", err, opts)
	}
	if status.IsClean() {
		slog.Info("Deploy branch already up to date", logfields.Branch(opts.Branch), logfields.Remote(url))
		return res, nil
	}

	hash, err := wt.Commit(message(opts.Message), &git.CommitOptions{Author: signature(opts)})
	if err != nil {
		return res, gitError("commit", err, opts)
	}
	res.Commit = hash.String()

	ref := plumbing.NewBranchReferenceName(opts.Branch)
	err = opts.Retry.Do(ctx, "push", transientPush, func(ctx context.Context) error {
		err := repo.PushContext(ctx, &git.PushOptions{
			RemoteName: remoteName,
			RefSpecs:   []ggitcfg.RefSpec{ggitcfg.RefSpec(ref + ":" + ref)},
			Auth:       auth,
		})
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		return err
	})
	if err != nil {
		return res, gitError("push", err, opts)
	}
	res.Pushed = true
	slog.Info("Published site", logfields.Branch(opts.Branch), logfields.Remote(url),
		logfields.Commit(res.Commit[:8]), logfields.Files(files))
	return res, nil
}

// transientPush reports whether a push failure may succeed when repeated.
func transientPush(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, git.ErrNonFastForwardUpdate):
		return false
	}
	return true
}

// RemoteURL returns the URL to publish to: RepoURL when set, otherwise the
// first URL of the configured remote of the project repository.
func RemoteURL(opts Options) (string, error) {
	if opts.RepoURL != "" {
		return opts.RepoURL, nil
	}
	repo, err := git.PlainOpenWithOptions(opts.ProjectRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", ferrors.GitError("open project repository").
			WithCause(err).
			WithContext("path", opts.ProjectRoot).
			UserAction().
			Build()
	}
	remote, err := repo.Remote(opts.Remote)
	if err != nil {
		return "", ferrors.GitError(fmt.Sprintf("remote %q not configured", opts.Remote)).
			WithCause(err).
			UserAction().
			Build()
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", ferrors.GitError(fmt.Sprintf("remote %q has no URL", opts.Remote)).UserAction().Build()
	}
	return urls[0], nil
}

// checkout clones the deploy branch into the cache directory, or starts an
// orphan branch when the remote does not have it yet.
func checkout(ctx context.Context, opts Options, url string, auth transport.AuthMethod) (*git.Repository, error) {
	if err := os.RemoveAll(opts.CacheDir); err != nil {
		return nil, ferrors.FileSystemError("clear deploy cache").WithCause(err).WithContext("path", opts.CacheDir).Build()
	}
	ref := plumbing.NewBranchReferenceName(opts.Branch)
	slog.Debug("Cloning deploy branch", logfields.Remote(url), logfields.Branch(opts.Branch), logfields.Path(opts.CacheDir))
	repo, err := git.PlainCloneContext(ctx, opts.CacheDir, false, &git.CloneOptions{
		URL:           url,
		ReferenceName: ref,
		SingleBranch:  true,
		Auth:          auth,
	})
	if err == nil {
		return repo, nil
	}
	if !isMissingBranch(err) {
		return nil, gitError("clone deploy branch", err, opts)
	}

	slog.Info("Deploy branch does not exist yet; creating it", logfields.Branch(opts.Branch))
	if err := os.RemoveAll(opts.CacheDir); err != nil {
		return nil, ferrors.FileSystemError("clear deploy cache").WithCause(err).WithContext("path", opts.CacheDir).Build()
	}
	repo, err = git.PlainInit(opts.CacheDir, false)
	if err != nil {
		return nil, gitError("init deploy repository", err, opts)
	}
	if _, err := repo.CreateRemote(&ggitcfg.RemoteConfig{Name: remoteName, URLs: []string{url}}); err != nil {
		return nil, gitError("configure remote", err, opts)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, ref)); err != nil {
		return nil, gitError("create orphan branch", err, opts)
	}
	return repo, nil
}

func isMissingBranch(err error) bool {
	if errors.Is(err, transport.ErrEmptyRemoteRepository) || errors.Is(err, plumbing.ErrReferenceNotFound) {
		return true
	}
	var noMatch git.NoMatchingRefSpecError
	if errors.As(err, &noMatch) {
		return true
	}
	return strings.Contains(err.Error(), "couldn't find remote ref")
}

// replaceTree empties dir (keeping .git) and copies src into it.
func replaceTree(dir, src string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ferrors.FileSystemError("read deploy cache").WithCause(err).WithContext("path", dir).Build()
	}
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return ferrors.FileSystemError("clear deploy cache").WithCause(err).WithContext("path", e.Name()).Build()
		}
	}
	_, err = fsutil.CopyTree(src, dir, func(rel string) bool {
		return rel == ".git" || strings.HasPrefix(rel, ".git/")
	})
	return err
}

func countFiles(dir string) (int, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return 0, ferrors.ValidationError("nothing to deploy: output directory does not exist").
			WithContext("path", dir).
			Build()
	}
	n := 0
	err = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, ferrors.FileSystemError("scan output directory").WithCause(err).WithContext("path", dir).Build()
	}
	return n, nil
}

// authFromEnv returns token credentials for HTTP remotes when a GitHub
// token is present in the environment.
func authFromEnv(url string) transport.AuthMethod {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil
	}
	for _, key := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := os.Getenv(key); token != "" {
			return &http.BasicAuth{Username: "x-access-token", Password: token}
		}
	}
	return nil
}

func message(m string) string {
	if m == "" {
		return "Updates"
	}
	return m
}

func signature(opts Options) *object.Signature {
	sig := &object.Signature{Name: opts.UserName, Email: opts.Email, When: time.Now()}
	if sig.Name == "" {
		sig.Name = defaultAuthor
	}
	if sig.Email == "" {
		sig.Email = defaultEmail
	}
	return sig
}

func gitError(op string, err error, opts Options) error {
	return ferrors.GitError(op).
		WithCause(err).
		WithContext("branch", opts.Branch).
		WithContext("cache_dir", opts.CacheDir).
		Build()
}
