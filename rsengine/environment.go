package rsengine

import (
	"context"
	"time"

	"github.com/leafbridge/rootstock/rsdeploy"
)

// environmentConvention stamps the per-invocation variables into the store
// so that later conventions and scripts can see them. The stamped variables
// live under the volatile prefix and never affect fingerprints.
type environmentConvention struct{}

func (environmentConvention) Name() string {
	return "environment"
}

func (environmentConvention) Execute(ctx context.Context, deployment *RunningDeployment) error {
	if deployment.Variables.Flag(rsdeploy.VariableForce) {
		deployment.Force = true
	}
	if deployment.Force {
		deployment.Variables.Set(rsdeploy.VariableForce, "true")
	}

	deployment.Variables.Set(rsdeploy.VariableDeploymentID, string(deployment.ID))
	deployment.Variables.Set(rsdeploy.VariableDeploymentStarted, time.Now().UTC().Format(time.RFC3339))
	if path := deployment.Staging.Path(); path != "" {
		deployment.Variables.Set(rsdeploy.VariableDeploymentStagingDir, path)
	}

	return nil
}
