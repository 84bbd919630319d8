package steps

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
	"git.home.luguber.info/inful/sitepipe/internal/images"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/minifier"
	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
	"git.home.luguber.info/inful/sitepipe/internal/useref"
)

// pagesGlob selects the compiled pages scanned for build blocks.
const pagesGlob = "**/*.html"

func newCleanStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepClean,
		Description: "Remove the dist and temp directories",
		Targets:     []string{"dist", "temp"},
	}, func(_ context.Context, st *pipeline.State) error {
		switch st.Target {
		case "dist":
			return fsutil.RemoveWithin(st.Root, st.DistDir())
		case "temp":
			return fsutil.RemoveWithin(st.Root, st.TempDir())
		default:
			return fsutil.RemoveWithin(st.Root, st.DistDir(), st.TempDir())
		}
	})
}

func newImageminStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepImagemin,
		Description: "Optimize images and fonts into the dist directory",
	}, func(ctx context.Context, st *pipeline.State) error {
		paths := st.Config.Build.Paths
		stats, err := images.NewOptimizer().Run(ctx, st.SrcDir(), st.DistDir(), paths.Images, paths.Fonts)
		if err != nil {
			return err
		}
		slog.Info(stats.String(), logfields.Files(stats.Files), slog.Int64("saved_bytes", stats.Saved()))
		return nil
	})
}

// assetPlan returns the build block plan of the current run, scanning the
// compiled pages when no earlier step produced one.
func assetPlan(st *pipeline.State) (*useref.Plan, error) {
	if st.Assets != nil {
		return st.Assets, nil
	}
	plan, err := useref.Prepare(st.TempDir(), pagesGlob)
	if err != nil {
		return nil, err
	}
	st.Assets = plan
	return plan, nil
}

func newUserefStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepUseref,
		Description: "Rewrite build blocks in the compiled pages and plan their concatenation",
	}, func(_ context.Context, st *pipeline.State) error {
		plan, err := useref.Prepare(st.TempDir(), pagesGlob)
		if err != nil {
			return err
		}
		if err := plan.Apply(st.TempDir(), st.TempDir()); err != nil {
			return err
		}
		st.Assets = plan
		slog.Info("Rewrote build blocks", logfields.Files(len(plan.Pages)), slog.Int("assets", len(plan.Assets)))
		return nil
	})
}

func newUseminPrepareStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepUseminPrepare,
		Description: "Plan the concatenation of build blocks without touching the pages",
	}, func(_ context.Context, st *pipeline.State) error {
		plan, err := useref.Prepare(st.TempDir(), pagesGlob)
		if err != nil {
			return err
		}
		st.Assets = plan
		slog.Info("Planned build blocks", logfields.Files(len(plan.Pages)), slog.Int("assets", len(plan.Assets)))
		return nil
	})
}

func newUseminStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepUsemin,
		Description: "Write the compiled pages with rewritten build blocks into the dist directory",
	}, func(_ context.Context, st *pipeline.State) error {
		plan, err := assetPlan(st)
		if err != nil {
			return err
		}
		if err := plan.Apply(st.TempDir(), st.DistDir()); err != nil {
			return err
		}
		slog.Info("Rewrote pages", logfields.Files(len(plan.Pages)))
		return nil
	})
}

func newConcatStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepConcat,
		Description: "Concatenate build block sources into the dist directory",
	}, func(_ context.Context, st *pipeline.State) error {
		plan, err := assetPlan(st)
		if err != nil {
			return err
		}
		written, err := plan.Concat(st.DistDir(), st.TempDir(), st.SrcDir(), st.Root)
		if err != nil {
			return err
		}
		slog.Info("Concatenated assets", logfields.Files(len(written)))
		return nil
	})
}

func minifyAssets(st *pipeline.State, typ string) (int, error) {
	plan, err := assetPlan(st)
	if err != nil {
		return 0, err
	}
	targets := plan.Targets(st.DistDir(), typ)
	return len(targets), minifier.New().Files(targets)
}

func newUglifyStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepUglify,
		Description: "Minify concatenated scripts in place",
	}, func(_ context.Context, st *pipeline.State) error {
		n, err := minifyAssets(st, useref.TypeJS)
		if err != nil {
			return err
		}
		slog.Info("Minified scripts", logfields.Files(n))
		return nil
	})
}

func newCssminStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepCssmin,
		Description: "Minify concatenated stylesheets in place",
	}, func(_ context.Context, st *pipeline.State) error {
		n, err := minifyAssets(st, useref.TypeCSS)
		if err != nil {
			return err
		}
		slog.Info("Minified stylesheets", logfields.Files(n))
		return nil
	})
}

func newCopyStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepCopy,
		Description: "Copy public files and compiled pages into the dist directory",
		Targets:     []string{"public", "page"},
	}, func(_ context.Context, st *pipeline.State) error {
		if st.Target == "" || st.Target == "public" {
			n, err := fsutil.CopyTree(st.PublicDir(), st.DistDir(), nil)
			if err != nil {
				return err
			}
			slog.Info("Copied public files", logfields.Files(n))
		}
		if st.Target == "" || st.Target == "page" {
			n, err := fsutil.CopyMatches(st.TempDir(), st.Config.Build.Paths.Pages, st.DistDir())
			if err != nil {
				return err
			}
			slog.Info("Copied pages", logfields.Files(n))
		}
		return nil
	})
}

func newHtmlminStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepHtmlmin,
		Description: "Minify the compiled pages into the dist directory",
	}, func(_ context.Context, st *pipeline.State) error {
		n, err := minifier.New().Tree(st.TempDir(), st.Config.Build.Paths.Pages, st.DistDir())
		if err != nil {
			return err
		}
		slog.Info("Minified pages", logfields.Files(n))
		return nil
	})
}
