package rsdeploy

import (
	"errors"

	"github.com/google/uuid"
)

// DeploymentID is a unique identifier for a single deployment attempt.
type DeploymentID string

// NewDeploymentID returns a random deployment ID.
func NewDeploymentID() DeploymentID {
	return DeploymentID(uuid.NewString())
}

// Validate returns a non-nil error if the deployment ID is invalid.
func (id DeploymentID) Validate() error {
	if id == "" {
		return errors.New("a deployment ID is missing")
	}
	return nil
}

// String returns the deployment ID as a string.
func (id DeploymentID) String() string {
	return string(id)
}
