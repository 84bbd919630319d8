package steps

import (
	"context"

	"git.home.luguber.info/inful/sitepipe/internal/lint"
	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
)

func linter(st *pipeline.State) *lint.Linter {
	return &lint.Linter{Tools: st.Tools, Root: st.Root, SrcDir: st.Config.Build.Src}
}

func newStylelintStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepStylelint,
		Description: "Lint and fix stylesheets with stylelint",
	}, func(ctx context.Context, st *pipeline.State) error {
		return linter(st).Styles(ctx, st.Config.Build.Paths.Styles, st.Config.Lint.StylelintConfig)
	})
}

func newEslintStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepEslint,
		Description: "Lint scripts with eslint",
	}, func(ctx context.Context, st *pipeline.State) error {
		return linter(st).Scripts(ctx, st.Config.Build.Paths.Scripts)
	})
}

func newJSHintStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepJSHint,
		Description: "Lint scripts with jshint",
	}, func(ctx context.Context, st *pipeline.State) error {
		return linter(st).ScriptsJSHint(ctx, st.Config.Build.Paths.Scripts, st.Config.Lint.JSHintConfig)
	})
}
