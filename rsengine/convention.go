package rsengine

import (
	"context"

	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsevent"
	"github.com/leafbridge/rootstock/rsjournal"
)

// Convention is a single step of the deployment pipeline. Conventions are
// idempotent: running one twice with the same deployment state produces the
// same result as running it once.
//
// A convention that finds its input absent treats the run as a no-op and
// returns nil, so one pipeline shape serves every deployment.
type Convention interface {
	// Name identifies the convention in events and diagnostics.
	Name() string

	// Execute applies the convention to the running deployment.
	Execute(ctx context.Context, deployment *RunningDeployment) error
}

// FeatureScript is a compiled-in hook that runs during a script phase,
// ahead of any configured or package-embedded scripts.
type FeatureScript struct {
	// Name identifies the hook in events and diagnostics.
	Name string

	// Run applies the hook to the running deployment.
	Run func(ctx context.Context, deployment *RunningDeployment) error
}

// PipelineOptions supplies the dependencies of the standard deployment
// pipeline.
type PipelineOptions struct {
	// Journal is the deployment journal for the host.
	Journal rsjournal.Store

	// Events receives events recorded by the conventions.
	Events rsevent.Recorder

	// WebServer registers deployed sites with the local web server. When
	// nil, registration runs the configured registration command.
	WebServer WebServerRegistrar

	// Features holds compiled-in hooks keyed by the phase they run in.
	Features map[rsdeploy.Phase][]FeatureScript
}

// BuildDeploymentPipeline returns the standard deployment conventions in
// their canonical order.
//
// The journal conventions run before any convention that changes the file
// system, so an attempt that is already current can stop before touching
// anything.
func BuildDeploymentPipeline(opts PipelineOptions) []Convention {
	return []Convention{
		environmentConvention{},
		previousInstallationConvention{journal: opts.Journal, events: opts.Events},
		idempotencyConvention{events: opts.Events},
		verifyPackageConvention{events: opts.Events},
		extractPackageConvention{events: opts.Events},
		scriptConvention{phase: rsdeploy.PhasePreDeploy, features: opts.Features[rsdeploy.PhasePreDeploy], events: opts.Events},
		substituteVariablesConvention{events: opts.Events},
		transformConfigConvention{events: opts.Events},
		scriptConvention{phase: rsdeploy.PhaseDeploy, features: opts.Features[rsdeploy.PhaseDeploy], events: opts.Events},
		customInstallCopyConvention{events: opts.Events},
		registerWebServerConvention{registrar: opts.WebServer, events: opts.Events},
		scriptConvention{phase: rsdeploy.PhasePostDeploy, features: opts.Features[rsdeploy.PhasePostDeploy], events: opts.Events},
	}
}
