package steps

import (
	"context"

	"git.home.luguber.info/inful/sitepipe/internal/deploy"
	"git.home.luguber.info/inful/sitepipe/internal/pipeline"
	"git.home.luguber.info/inful/sitepipe/internal/retry"
)

func newGhPagesStep() pipeline.Step {
	return pipeline.NewStep(pipeline.StepMetadata{
		Name:        pipeline.StepGhPages,
		Description: "Publish the dist directory to the deploy branch",
	}, func(ctx context.Context, st *pipeline.State) error {
		d := st.Config.Deploy
		policy := retry.DefaultPolicy()
		if d.PushRetries != nil {
			policy = retry.NewPolicy(retry.ModeLinear, 0, 0, *d.PushRetries)
		}
		_, err := deploy.Publish(ctx, deploy.Options{
			ProjectRoot: st.Root,
			DistDir:     st.DistDir(),
			CacheDir:    st.Path(d.CacheDir),
			Branch:      st.Options.Branch,
			Remote:      d.Remote,
			RepoURL:     d.Repo,
			Message:     d.Message,
			UserName:    d.UserName,
			Email:       d.Email,
			Retry:       policy,
		})
		return err
	})
}
