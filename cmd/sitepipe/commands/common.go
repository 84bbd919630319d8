package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
	"git.home.luguber.info/inful/sitepipe/internal/steps"
)

// Global is shared state passed to every command.
type Global struct {
	// Out receives listings (tasks, plan). Defaults to stdout.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Production bool             `help:"Production mode: minify scripts, styles and pages" env:"SITEPIPE_PRODUCTION"`
	Prod       bool             `help:"Alias for --production"`
	Open       bool             `help:"Open a browser once the dev server is up"`
	Port       int              `help:"Dev server port" default:"2080" env:"SITEPIPE_PORT"`
	Branch     string           `help:"Deploy branch" default:"gh-pages" env:"SITEPIPE_BRANCH"`
	Config     string           `short:"c" help:"Configuration file path (relative to --dir)" default:"sitepipe.yaml"`
	Dir        string           `short:"C" help:"Project root" default:"." type:"existingdir"`
	Verbose    bool             `short:"v" help:"Enable verbose logging"`
	Version    kong.VersionFlag `name:"version" help:"Show version and exit"`

	Compile CompileCmd `cmd:"" help:"Compile scripts, styles and pages into the temp directory"`
	Serve   ServeCmd   `cmd:"" help:"Compile and serve with live reload, recompiling on change"`
	Lint    LintCmd    `cmd:"" help:"Lint styles and scripts"`
	Build   BuildCmd   `cmd:"" help:"Build the site into the dist directory"`
	Start   StartCmd   `cmd:"" help:"Build and serve the dist directory"`
	Deploy  DeployCmd  `cmd:"" help:"Build and publish the dist directory to the deploy branch"`
	Default DefaultCmd `cmd:"" default:"1" help:"Compile and produce minified, rewritten pages in dist"`
	Run     RunCmd     `cmd:"" help:"Run steps or pipelines by name"`
	Tasks   TasksCmd   `cmd:"" help:"List steps and pipelines"`
	Plan    PlanCmd    `cmd:"" help:"Print the steps a pipeline expands to without running them"`
	Init    InitCmd    `cmd:"" help:"Write a default configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if env := os.Getenv("SITEPIPE_LOG_LEVEL"); env != "" {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(strings.ToUpper(env))); err == nil {
			level = parsed
		}
	}
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// Options resolves the command-line toggles.
func (c *CLI) Options() (config.Options, error) {
	branch := c.Branch
	return config.ResolveOptions(config.Flags{
		Production: c.Production,
		Prod:       c.Prod,
		Open:       c.Open,
		Port:       c.Port,
		Branch:     &branch,
	})
}

// ProjectRoot returns the absolute project root.
func (c *CLI) ProjectRoot() (string, error) {
	dir := c.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Abs(dir)
}

// project loads everything a run needs.
func (c *CLI) project() (string, *config.Config, config.Options, error) {
	opts, err := c.Options()
	if err != nil {
		return "", nil, config.Options{}, err
	}
	root, err := c.ProjectRoot()
	if err != nil {
		return "", nil, config.Options{}, err
	}
	cfg, err := config.Load(root, c.Config)
	if err != nil {
		return "", nil, config.Options{}, err
	}
	return root, cfg, opts, nil
}

// RunPipeline executes names against the project selected by the root flags.
func RunPipeline(ctx context.Context, root *CLI, names ...pipeline.StepName) error {
	dir, cfg, opts, err := root.project()
	if err != nil {
		return err
	}

	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	registry, err := steps.NewRegistry(steps.Deps{Production: opts.Production, Recorder: rec, Metrics: reg})
	if err != nil {
		return err
	}

	st := pipeline.NewState(dir, cfg, opts)
	err = pipeline.NewRunner(registry).WithRecorder(rec).Run(ctx, st, names...)
	if st.Server != nil {
		if stopErr := st.Server.Stop(context.Background()); stopErr != nil {
			slog.Warn("Dev server shutdown failed", logfields.Error(stopErr))
		}
	}
	return err
}
