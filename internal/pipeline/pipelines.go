package pipeline

// BuildSteps returns the members of the build pipeline. Production builds
// add script and style minification and HTML minification.
func BuildSteps(production bool) []StepName {
	if production {
		return []StepName{
			StepClean, PipelineCompile, StepImagemin, StepUseref, StepConcat,
			StepUglify, StepCssmin, StepCopy, StepHtmlmin,
		}
	}
	return []StepName{
		StepClean, PipelineCompile, StepImagemin, StepUseref, StepConcat, StepCopy,
	}
}

// RegisterPipelines adds the named pipelines selectable from the command line.
func RegisterPipelines(r *Registry, production bool) error {
	defs := []struct {
		name  StepName
		desc  string
		steps []StepName
	}{
		{PipelineCompile, "Compile scripts, styles and pages into the temp directory", []StepName{StepBabel, StepSass, StepSwig}},
		{PipelineServe, "Compile, serve temp/src/public with live reload and recompile on change", []StepName{PipelineCompile, StepBrowserSyncDev, StepWatch}},
		{PipelineLint, "Lint styles and scripts", []StepName{StepStylelint, StepEslint}},
		{PipelineBuild, "Build the distributable site into the dist directory", BuildSteps(production)},
		{PipelineStart, "Build and serve the dist directory", []StepName{PipelineBuild, StepBrowserSync}},
		{PipelineDeploy, "Build and publish the dist directory to the deploy branch", []StepName{PipelineBuild, StepGhPages}},
		{PipelineDefault, "Compile and produce minified, rewritten pages in dist", []StepName{PipelineCompile, StepUseminPrepare, StepConcat, StepCssmin, StepUglify, StepUsemin}},
	}
	for _, d := range defs {
		if err := r.Alias(d.name, d.desc, d.steps...); err != nil {
			return err
		}
	}
	return nil
}
