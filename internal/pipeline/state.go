package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/devserver"
	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/toolexec"
	"git.home.luguber.info/inful/sitepipe/internal/useref"
)

// State is the mutable context shared by the steps of one run.
type State struct {
	RunID   string
	Root    string // project root; every configured path is relative to it
	Config  *config.Config
	Options config.Options
	Now     time.Time

	// Target is the suffix of the invocation currently executing (copy:public).
	Target string

	// Tools runs external executables (sass, stylelint, eslint).
	Tools toolexec.Runner

	// Assets is the build block plan produced by useref/useminPrepare and
	// consumed by concat, uglify, cssmin and usemin.
	Assets *useref.Plan

	// Server is the dev server started by browserSync:dev.
	Server *devserver.Server

	runner *Runner
}

// NewState creates run state for a project rooted at root.
func NewState(root string, cfg *config.Config, opts config.Options) *State {
	if cfg == nil {
		cfg = config.Default()
	}
	return &State{
		Root:    root,
		Config:  cfg,
		Options: opts,
		Now:     time.Now(),
		Tools:   toolexec.NewExecRunner(root),
	}
}

// Path joins elem onto the project root.
func (s *State) Path(elem ...string) string {
	return filepath.Join(append([]string{s.Root}, elem...)...)
}

// SrcDir returns the absolute source directory.
func (s *State) SrcDir() string { return s.Path(s.Config.Build.Src) }

// TempDir returns the absolute intermediate output directory.
func (s *State) TempDir() string { return s.Path(s.Config.Build.Temp) }

// DistDir returns the absolute final output directory.
func (s *State) DistDir() string { return s.Path(s.Config.Build.Dist) }

// PublicDir returns the absolute directory of files copied verbatim.
func (s *State) PublicDir() string { return s.Path(s.Config.Build.Public) }

// Run executes further steps with the runner that is executing this state.
// The watch step uses it to re-run compilers after a change.
func (s *State) Run(ctx context.Context, names ...StepName) error {
	if s.runner == nil {
		return ferrors.InternalError("state is not attached to a runner").Build()
	}
	saved := s.Target
	defer func() { s.Target = saved }()
	return s.runner.execute(ctx, s, names)
}
