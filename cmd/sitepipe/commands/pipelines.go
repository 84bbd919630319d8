package commands

import (
	"context"

	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
)

// CompileCmd implements the 'compile' command.
type CompileCmd struct{}

func (*CompileCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	return RunPipeline(ctx, root, pipeline.PipelineCompile)
}

// ServeCmd implements the 'serve' command.
type ServeCmd struct{}

func (*ServeCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	return RunPipeline(ctx, root, pipeline.PipelineServe)
}

// LintCmd implements the 'lint' command.
type LintCmd struct{}

func (*LintCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	return RunPipeline(ctx, root, pipeline.PipelineLint)
}

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (*BuildCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	return RunPipeline(ctx, root, pipeline.PipelineBuild)
}

// StartCmd implements the 'start' command.
type StartCmd struct{}

func (*StartCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	return RunPipeline(ctx, root, pipeline.PipelineStart)
}

// DeployCmd implements the 'deploy' command.
type DeployCmd struct{}

func (*DeployCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	return RunPipeline(ctx, root, pipeline.PipelineDeploy)
}

// DefaultCmd runs when no command is given.
type DefaultCmd struct{}

func (*DefaultCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	return RunPipeline(ctx, root, pipeline.PipelineDefault)
}
