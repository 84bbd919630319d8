package steps

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/pages"
	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
	"git.home.luguber.info/inful/sitepipe/internal/scripts"
	"git.home.luguber.info/inful/sitepipe/internal/styles"
)

func newBabelStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepBabel,
		Description: "Transpile scripts to ES2015 into the temp directory",
	}, func(_ context.Context, st *pipeline.State) error {
		n, err := scripts.Compile(st.SrcDir(), st.TempDir(), st.Config.Build.Paths.Scripts, st.Options.Production)
		if err != nil {
			return err
		}
		slog.Info("Transpiled scripts", logfields.Files(n))
		return nil
	})
}

func newSassStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepSass,
		Description: "Compile SCSS stylesheets into the temp directory",
	}, func(ctx context.Context, st *pipeline.State) error {
		c := &styles.Compiler{
			Tools:      st.Tools,
			SrcDir:     st.SrcDir(),
			OutDir:     st.TempDir(),
			Pattern:    st.Config.Build.Paths.Styles,
			Production: st.Options.Production,
		}
		n, err := c.Compile(ctx)
		if err != nil {
			return err
		}
		slog.Info("Compiled stylesheets", logfields.Files(n))
		return nil
	})
}

func newSwigStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepSwig,
		Description: "Render page templates with the site data into the temp directory",
	}, func(_ context.Context, st *pipeline.State) error {
		pkg, err := config.LoadPackage(st.Root)
		if err != nil {
			return err
		}
		r, err := pages.NewRenderer(st.SrcDir(), config.TemplateData(st.Config, pkg, st.Now))
		if err != nil {
			return err
		}
		n, err := r.RenderAll(st.Config.Build.Paths.Pages, st.TempDir())
		if err != nil {
			return err
		}
		slog.Info("Rendered pages", logfields.Files(n))
		return nil
	})
}
