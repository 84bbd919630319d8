package pipeline

import (
	"fmt"
	"slices"
	"sort"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
)

// alias is a named, ordered list of other steps or aliases.
type alias struct {
	description string
	steps       []StepName
}

// Registry manages registered steps and the pipelines composed from them.
type Registry struct {
	steps   map[StepName]Step
	aliases map[StepName]alias
}

// Invocation is one leaf step resolved from an expanded pipeline.
type Invocation struct {
	Name   StepName // name as written, including any target
	Step   Step
	Target string
}

// Entry is a registry listing row.
type Entry struct {
	Name        StepName
	Description string
	Steps       []StepName // non-nil for pipelines
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		steps:   make(map[StepName]Step),
		aliases: make(map[StepName]alias),
	}
}

// Register adds a step. Names must be unique across steps and pipelines.
func (r *Registry) Register(step Step) error {
	name := step.Name()
	if r.exists(name) {
		return ferrors.InternalError(fmt.Sprintf("step %q registered twice", name)).Build()
	}
	r.steps[name] = step
	return nil
}

// Alias registers a pipeline that expands to steps, in order.
func (r *Registry) Alias(name StepName, description string, steps ...StepName) error {
	if r.exists(name) {
		return ferrors.InternalError(fmt.Sprintf("pipeline %q registered twice", name)).Build()
	}
	r.aliases[name] = alias{description: description, steps: slices.Clone(steps)}
	return nil
}

func (r *Registry) exists(name StepName) bool {
	_, isStep := r.steps[name]
	_, isAlias := r.aliases[name]
	return isStep || isAlias
}

// Get retrieves a leaf step by exact name.
func (r *Registry) Get(name StepName) (Step, bool) {
	step, ok := r.steps[name]
	return step, ok
}

// Pipeline returns the direct members of a pipeline.
func (r *Registry) Pipeline(name StepName) ([]StepName, bool) {
	a, ok := r.aliases[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(a.steps), true
}

// List returns every step and pipeline sorted by name.
func (r *Registry) List() []Entry {
	entries := make([]Entry, 0, len(r.steps)+len(r.aliases))
	for name, step := range r.steps {
		entries = append(entries, Entry{Name: name, Description: step.Description()})
	}
	for name, a := range r.aliases {
		entries = append(entries, Entry{Name: name, Description: a.description, Steps: slices.Clone(a.steps)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Validate checks that every pipeline member resolves and no pipeline
// contains itself.
func (r *Registry) Validate() error {
	names := make([]StepName, 0, len(r.aliases))
	for name := range r.aliases {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	for _, name := range names {
		if _, err := r.Expand(name); err != nil {
			return err
		}
	}
	return nil
}

// Expand flattens the given names into the ordered leaf steps to execute.
func (r *Registry) Expand(names ...StepName) ([]Invocation, error) {
	var out []Invocation
	for _, name := range names {
		if err := r.expand(name, nil, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Registry) expand(name StepName, stack []StepName, out *[]Invocation) error {
	if slices.Contains(stack, name) {
		cycle := append(slices.Clone(stack), name)
		return ferrors.ValidationError("pipeline cycle detected").
			WithContext("cycle", fmt.Sprint(cycle)).
			Build()
	}
	if a, ok := r.aliases[name]; ok {
		stack = append(stack, name)
		for _, member := range a.steps {
			if err := r.expand(member, stack, out); err != nil {
				return err
			}
		}
		return nil
	}
	if step, ok := r.steps[name]; ok {
		*out = append(*out, Invocation{Name: name, Step: step})
		return nil
	}

	base, target := name.Split()
	step, ok := r.steps[base]
	if !ok || target == "" {
		return ferrors.NewError(ferrors.CategoryNotFound, fmt.Sprintf("unknown step or pipeline %q", name)).
			Fatal().
			UserAction().
			Build()
	}
	var targets []string
	if t, ok := step.(Targeted); ok {
		targets = t.Targets()
	}
	if !slices.Contains(targets, target) {
		return ferrors.ValidationError(fmt.Sprintf("step %q has no target %q", base, target)).
			WithContext("targets", targets).
			Build()
	}
	*out = append(*out, Invocation{Name: name, Step: step, Target: target})
	return nil
}
