package rsdeploy

import (
	"errors"
	"strings"
)

// TargetID identifies the deployment target that a deployment acts upon.
//
// A target is the combination of an environment, a project, an optional
// tenant, and the machine the deployment runs on. Deployments for the same
// target share a journal and contend for the same host-wide lock.
type TargetID struct {
	Environment string `json:"environment"`
	Project     string `json:"project"`
	Tenant      string `json:"tenant,omitempty"`
	Machine     string `json:"machine"`
}

// Validate returns a non-nil error if the target ID is invalid.
func (t TargetID) Validate() error {
	if t.Environment == "" {
		return errors.New("the deployment target is missing an environment")
	}
	if t.Project == "" {
		return errors.New("the deployment target is missing a project")
	}
	if t.Machine == "" {
		return errors.New("the deployment target is missing a machine")
	}
	return nil
}

// Key returns a stable key for the target, joining its non-empty components
// with "/". Deployments that share a key share a journal and a lock.
func (t TargetID) Key() string {
	parts := make([]string, 0, 4)
	for _, part := range []string{t.Environment, t.Project, t.Tenant, t.Machine} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "/")
}

// String returns a string representation of the target.
func (t TargetID) String() string {
	return t.Key()
}
