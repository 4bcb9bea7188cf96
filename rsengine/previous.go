package rsengine

import (
	"context"

	"github.com/leafbridge/rootstock/rsdeployevent"
	"github.com/leafbridge/rootstock/rsevent"
	"github.com/leafbridge/rootstock/rsjournal"
)

// previousInstallationConvention looks up the most recent journal entry for
// the target. A corrupt journal stops the run; it is never mistaken for an
// absent one.
type previousInstallationConvention struct {
	journal rsjournal.Store
	events  rsevent.Recorder
}

func (c previousInstallationConvention) Name() string {
	return "previous-installation"
}

func (c previousInstallationConvention) Execute(ctx context.Context, deployment *RunningDeployment) error {
	entry, found, err := c.journal.TryGetEntry(deployment.Target)
	if err != nil {
		return err
	}

	if !found {
		c.events.Record(rsdeployevent.FirstDeployment{
			Deployment: deployment.ID,
			Target:     deployment.Target,
		})
		return nil
	}

	deployment.Previous = &entry
	c.events.Record(rsdeployevent.PreviousInstallationFound{
		Deployment:  deployment.ID,
		Previous:    entry.ID,
		Recorded:    entry.Recorded,
		Successful:  entry.Successful,
		Fingerprint: entry.Fingerprint,
	})
	return nil
}

// idempotencyConvention skips the rest of the run when the attempt matches
// the previous successful deployment. A failed previous attempt never
// satisfies the check, and Force defeats it.
type idempotencyConvention struct {
	events rsevent.Recorder
}

func (c idempotencyConvention) Name() string {
	return "idempotency-check"
}

func (c idempotencyConvention) Execute(ctx context.Context, deployment *RunningDeployment) error {
	previous := deployment.Previous
	if previous == nil || !previous.Successful {
		return nil
	}
	if deployment.Force {
		return nil
	}
	if deployment.Fingerprint == "" || previous.Fingerprint != deployment.Fingerprint {
		return nil
	}

	deployment.SkipRemaining = true
	c.events.Record(rsdeployevent.DeploymentAlreadyCurrent{
		Deployment:  deployment.ID,
		Previous:    previous.ID,
		Fingerprint: deployment.Fingerprint,
	})
	return nil
}
