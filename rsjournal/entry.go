// Package rsjournal maintains the durable deployment journal for Rootstock.
//
// The journal records one document per deployment target. Each document
// holds the target's deployment history, newest last. The journal is the
// source of previous-installation information and the basis of idempotent
// redeployment decisions.
package rsjournal

import (
	"errors"
	"time"

	"github.com/leafbridge/rootstock/filehash"
	"github.com/leafbridge/rootstock/rsdeploy"
)

// Entry records the outcome of a single deployment attempt for a target.
type Entry struct {
	ID            rsdeploy.DeploymentID `json:"id"`
	Target        rsdeploy.TargetID     `json:"target"`
	PackagePath   string                `json:"package-path,omitempty"`
	PackageHashes filehash.Map          `json:"package-hashes,omitzero"`
	Fingerprint   Fingerprint           `json:"fingerprint,omitempty"`
	InstallDir    string                `json:"install-dir,omitempty"`
	Files         []string              `json:"files,omitempty"`
	Directories   []string              `json:"directories,omitempty"`
	Successful    bool                  `json:"successful"`
	Recorded      time.Time             `json:"recorded"`
}

// Validate returns a non-nil error if the journal entry is invalid.
func (e Entry) Validate() error {
	if err := e.ID.Validate(); err != nil {
		return err
	}
	if err := e.Target.Validate(); err != nil {
		return err
	}
	if e.Recorded.IsZero() {
		return errors.New("the journal entry is missing a recording time")
	}
	return nil
}
