package steps

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/devserver"
	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
	"git.home.luguber.info/inful/sitepipe/internal/watch"
)

// routes resolves the configured prefix routes against the project root.
func routes(st *pipeline.State) map[string]string {
	out := make(map[string]string, len(st.Config.Server.Routes))
	for prefix, dir := range st.Config.Server.Routes {
		if !filepath.IsAbs(dir) {
			dir = st.Path(dir)
		}
		out[prefix] = dir
	}
	return out
}

func newBrowserSyncDevStep(deps Deps) pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepBrowserSyncDev,
		Description: "Start the live reloading dev server over temp, src and public",
	}, func(ctx context.Context, st *pipeline.State) error {
		srv := devserver.New(devserver.Options{
			Port:       st.Options.Port,
			BaseDirs:   []string{st.TempDir(), st.SrcDir(), st.PublicDir()},
			Routes:     routes(st),
			LiveReload: true,
			Open:       st.Options.Open,
			Recorder:   deps.Recorder,
			Registry:   deps.Metrics,
		})
		if err := srv.Start(ctx); err != nil {
			return err
		}
		st.Server = srv
		return nil
	})
}

func newBrowserSyncDistStep(deps Deps) pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepBrowserSync,
		Description: "Serve the dist directory until interrupted",
	}, func(ctx context.Context, st *pipeline.State) error {
		srv := devserver.New(devserver.Options{
			Port:     st.Options.Port,
			BaseDirs: []string{st.DistDir()},
			Open:     st.Options.Open,
			Recorder: deps.Recorder,
			Registry: deps.Metrics,
		})
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				slog.Warn("Dev server shutdown failed", logfields.Error(err))
			}
		}()
		return srv.Wait(ctx)
	})
}

// WatchRules maps source changes to the steps that rebuild them. Image,
// font and public file changes only reload the browser.
func WatchRules(b config.BuildConfig) []watch.Rule {
	src := func(p string) string { return path.Join(b.Src, p) }
	return []watch.Rule{
		{
			Name:     "scripts",
			Patterns: []string{src(b.Paths.Scripts)},
			Tasks:    []string{string(pipeline.StepBabel)},
		},
		{
			Name:     "styles",
			Patterns: []string{src(b.Paths.Styles), src(path.Join(fsutil.Base(b.Paths.Styles), "**/_*.scss"))},
			Tasks:    []string{string(pipeline.StepSass)},
		},
		{
			Name:     "pages",
			Patterns: []string{src(b.Paths.Pages), src("**/_*.html")},
			Tasks:    []string{string(pipeline.StepSwig)},
		},
		{
			Name:     "assets",
			Patterns: []string{src(b.Paths.Images), src(b.Paths.Fonts), path.Join(b.Public, "**")},
		},
	}
}

func newWatchStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepWatch,
		Description: "Recompile on source changes and reload browsers until interrupted",
	}, func(ctx context.Context, st *pipeline.State) error {
		defer stopServer(st)
		w := &watch.Watcher{
			Root:  st.Root,
			Dirs:  []string{st.Config.Build.Src, st.Config.Build.Public},
			Rules: WatchRules(st.Config.Build),
			OnChange: func(ctx context.Context, c watch.Change) {
				onChange(ctx, st, c)
			},
		}
		return w.Run(ctx)
	})
}

// onChange re-runs the steps of a change and reloads browsers. A failed
// re-run is logged and leaves the browsers alone.
func onChange(ctx context.Context, st *pipeline.State, c watch.Change) {
	slog.Info("Change detected", logfields.Files(len(c.Paths)), slog.Any("tasks", c.Tasks))
	if len(c.Tasks) > 0 {
		if err := st.Run(ctx, pipeline.Names(c.Tasks...)...); err != nil {
			slog.Warn("Rebuild failed; waiting for the next change", logfields.Error(err))
			return
		}
	}
	if st.Server != nil {
		st.Server.Reload()
	}
}

// stopServer shuts down the dev server started earlier in the run.
func stopServer(st *pipeline.State) {
	if st.Server == nil {
		return
	}
	if err := st.Server.Stop(context.Background()); err != nil {
		slog.Warn("Dev server shutdown failed", logfields.Error(err))
	}
	st.Server = nil
}
