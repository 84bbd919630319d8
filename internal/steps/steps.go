// Package steps registers the site build steps and pipelines.
package steps

import (
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitepipe/internal/metrics"
	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
)

// Deps are the shared services some steps need.
type Deps struct {
	Production bool

	// Recorder receives live reload metrics from the dev servers.
	Recorder metrics.Recorder
	// Metrics is exposed by the dev servers when set.
	Metrics *prom.Registry
}

// NewRegistry returns a registry holding every step and pipeline.
func NewRegistry(deps Deps) (*pipeline.Registry, error) {
	r := pipeline.NewRegistry()
	if err := Register(r, deps); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds every step and pipeline to r and validates the result.
func Register(r *pipeline.Registry, deps Deps) error {
	if deps.Recorder == nil {
		deps.Recorder = metrics.NoopRecorder{}
	}
	all := []pipeline.Step{
		newCleanStep(),
		newBabelStep(),
		newSassStep(),
		newSwigStep(),
		newImageminStep(),
		newUserefStep(),
		newUseminPrepareStep(),
		newUseminStep(),
		newConcatStep(),
		newUglifyStep(),
		newCssminStep(),
		newCopyStep(),
		newHtmlminStep(),
		newStylelintStep(),
		newEslintStep(),
		newJSHintStep(),
		newBrowserSyncDevStep(deps),
		newBrowserSyncDistStep(deps),
		newWatchStep(),
		newGhPagesStep(),
	}
	for _, s := range all {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	if err := pipeline.RegisterPipelines(r, deps.Production); err != nil {
		return err
	}
	return r.Validate()
}
