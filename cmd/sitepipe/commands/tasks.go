package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
	"git.home.luguber.info/inful/sitepipe/internal/steps"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Steps []string `arg:"" help:"Steps or pipelines to run in order (name or name:target)"`
}

func (r *RunCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	return RunPipeline(ctx, root, pipeline.Names(r.Steps...)...)
}

func registryFor(root *CLI) (*pipeline.Registry, error) {
	opts, err := root.Options()
	if err != nil {
		return nil, err
	}
	return steps.NewRegistry(steps.Deps{Production: opts.Production})
}

// TasksCmd implements the 'tasks' command.
type TasksCmd struct{}

func (*TasksCmd) Run(g *Global, root *CLI) error {
	reg, err := registryFor(root)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.out(), 0, 0, 2, ' ', 0)
	for _, e := range reg.List() {
		desc := e.Description
		if e.Steps != nil {
			parts := make([]string, 0, len(e.Steps))
			for _, s := range e.Steps {
				parts = append(parts, string(s))
			}
			desc = fmt.Sprintf("%s [%s]", desc, strings.Join(parts, ", "))
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", e.Name, desc)
	}
	return tw.Flush()
}

// PlanCmd implements the 'plan' command.
type PlanCmd struct {
	Names []string `arg:"" help:"Pipelines or steps to expand"`
}

func (p *PlanCmd) Run(g *Global, root *CLI) error {
	reg, err := registryFor(root)
	if err != nil {
		return err
	}
	plan, err := pipeline.NewRunner(reg).Plan(pipeline.Names(p.Names...)...)
	if err != nil {
		return err
	}
	for i, name := range plan {
		if _, err := fmt.Fprintf(g.out(), "%2d. %s\n", i+1, name); err != nil {
			return err
		}
	}
	return nil
}
