package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
)

// Runner executes expanded pipelines one step at a time.
type Runner struct {
	registry *Registry
	recorder metrics.Recorder
}

// NewRunner creates a runner over registry.
func NewRunner(registry *Registry) *Runner {
	return &Runner{registry: registry, recorder: metrics.NoopRecorder{}}
}

// WithRecorder attaches a metrics recorder (fluent helper).
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// Recorder returns the attached metrics recorder.
func (r *Runner) Recorder() metrics.Recorder { return r.recorder }

// Run expands names and executes the resulting steps sequentially. The first
// failing step stops the run; later steps are not started.
func (r *Runner) Run(ctx context.Context, st *State, names ...StepName) error {
	if st.RunID == "" {
		st.RunID = uuid.NewString()
	}
	st.runner = r

	label := joinNames(names)
	start := time.Now()
	slog.Info("Starting pipeline", logfields.Pipeline(label), logfields.RunID(st.RunID),
		slog.Bool("production", st.Options.Production))

	err := r.execute(ctx, st, names)
	elapsed := time.Since(start)
	r.recorder.ObservePipelineDuration(elapsed)

	switch {
	case err == nil:
		r.recorder.IncPipelineOutcome(metrics.ResultSuccess)
		slog.Info("Pipeline completed", logfields.Pipeline(label), logfields.RunID(st.RunID),
			logfields.DurationMS(float64(elapsed.Milliseconds())))
	case errors.Is(err, context.Canceled):
		r.recorder.IncPipelineOutcome(metrics.ResultCanceled)
		slog.Warn("Pipeline canceled", logfields.Pipeline(label), logfields.RunID(st.RunID))
	default:
		r.recorder.IncPipelineOutcome(metrics.ResultFailed)
		slog.Error("Pipeline failed", logfields.Pipeline(label), logfields.RunID(st.RunID), logfields.Error(err))
	}
	return err
}

// Plan returns the leaf step names names expand to, without running anything.
func (r *Runner) Plan(names ...StepName) ([]StepName, error) {
	invs, err := r.registry.Expand(names...)
	if err != nil {
		return nil, err
	}
	out := make([]StepName, 0, len(invs))
	for _, inv := range invs {
		out = append(out, inv.Name)
	}
	return out, nil
}

func (r *Runner) execute(ctx context.Context, st *State, names []StepName) error {
	invs, err := r.registry.Expand(names...)
	if err != nil {
		return err
	}
	for _, inv := range invs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.executeOne(ctx, st, inv); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) executeOne(ctx context.Context, st *State, inv Invocation) error {
	st.Target = inv.Target
	if b, ok := inv.Step.(interface{ LogStart(*State) }); ok {
		b.LogStart(st)
	}

	start := time.Now()
	err := inv.Step.Execute(ctx, st)
	elapsed := time.Since(start)
	step := string(inv.Name)
	r.recorder.ObserveStepDuration(step, elapsed)

	if err != nil {
		result := metrics.ResultFailed
		if errors.Is(err, context.Canceled) {
			result = metrics.ResultCanceled
		}
		r.recorder.IncStepResult(step, result)
		slog.Error("Step failed", logfields.Step(step), logfields.RunID(st.RunID), logfields.Error(err))
		return ferrors.WrapError(err, ferrors.CategoryTask, fmt.Sprintf("step %s failed", step)).
			WithContext("step", step).
			Fatal().
			Build()
	}
	r.recorder.IncStepResult(step, metrics.ResultSuccess)
	slog.Info("Step finished", logfields.Step(step), logfields.DurationMS(float64(elapsed.Milliseconds())))
	return nil
}

func joinNames(names []StepName) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, string(n))
	}
	return strings.Join(parts, ",")
}
