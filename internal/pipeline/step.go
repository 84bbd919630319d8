package pipeline

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

// Step is a single unit of work that can be executed by the Runner.
type Step interface {
	// Name returns the name the step is registered under.
	Name() StepName

	// Description returns a human-readable description of what this step does.
	Description() string

	// Execute runs the step against the shared run state.
	Execute(ctx context.Context, st *State) error
}

// Targeted is implemented by steps that accept a name:target suffix.
type Targeted interface {
	Targets() []string
}

// StepMetadata describes a step.
type StepMetadata struct {
	Name        StepName
	Description string
	Targets     []string
}

// BaseStep provides a common implementation for step metadata and logging.
type BaseStep struct {
	metadata StepMetadata
}

// NewBaseStep creates a new base step with the given metadata.
func NewBaseStep(metadata StepMetadata) BaseStep {
	return BaseStep{metadata: metadata}
}

// Name returns the step name.
func (s BaseStep) Name() StepName {
	return s.metadata.Name
}

// Description returns the step description.
func (s BaseStep) Description() string {
	return s.metadata.Description
}

// Targets returns the accepted targets, nil when the step takes none.
func (s BaseStep) Targets() []string {
	return s.metadata.Targets
}

// LogStart logs the start of a step execution.
func (s BaseStep) LogStart(st *State) {
	attrs := []any{logfields.Step(string(s.Name())), logfields.RunID(st.RunID)}
	if st.Target != "" {
		attrs = append(attrs, logfields.Target(st.Target))
	}
	slog.Info("Running step", attrs...)
}

// funcStep adapts a function to the Step interface.
type funcStep struct {
	BaseStep
	fn func(ctx context.Context, st *State) error
}

// NewStep builds a Step from metadata and an execute function.
func NewStep(metadata StepMetadata, fn func(ctx context.Context, st *State) error) Step {
	return &funcStep{BaseStep: NewBaseStep(metadata), fn: fn}
}

func (s *funcStep) Execute(ctx context.Context, st *State) error {
	return s.fn(ctx, st)
}
