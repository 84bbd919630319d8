package pipeline

import "strings"

// StepName is a strongly-typed identifier for a step or a pipeline.
// A name may carry a target suffix separated by a colon (copy:public).
type StepName string

// Leaf step names.
const (
	StepClean          StepName = "clean"
	StepBabel          StepName = "babel"
	StepSass           StepName = "sass"
	StepSwig           StepName = "swig"
	StepImagemin       StepName = "imagemin"
	StepUseref         StepName = "useref"
	StepUseminPrepare  StepName = "useminPrepare"
	StepUsemin         StepName = "usemin"
	StepConcat         StepName = "concat"
	StepUglify         StepName = "uglify"
	StepCssmin         StepName = "cssmin"
	StepCopy           StepName = "copy"
	StepHtmlmin        StepName = "htmlmin"
	StepStylelint      StepName = "stylelint"
	StepEslint         StepName = "eslint"
	StepJSHint         StepName = "jshint"
	StepBrowserSyncDev StepName = "browserSync:dev"
	StepBrowserSync    StepName = "browserSync:dist"
	StepWatch          StepName = "watch"
	StepGhPages        StepName = "gh-pages"
)

// Pipeline (alias) names selectable from the command line.
const (
	PipelineCompile StepName = "compile"
	PipelineServe   StepName = "serve"
	PipelineLint    StepName = "lint"
	PipelineBuild   StepName = "build"
	PipelineStart   StepName = "start"
	PipelineDeploy  StepName = "deploy"
	PipelineDefault StepName = "default"
)

// Split separates a target suffix: "copy:public" yields ("copy", "public").
func (n StepName) Split() (StepName, string) {
	base, target, found := strings.Cut(string(n), ":")
	if !found {
		return n, ""
	}
	return StepName(base), target
}

// Names converts plain strings (command-line arguments) to step names.
func Names(args ...string) []StepName {
	out := make([]StepName, 0, len(args))
	for _, a := range args {
		out = append(out, StepName(a))
	}
	return out
}
