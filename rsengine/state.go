package rsengine

import (
	"slices"

	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsjournal"
	"github.com/leafbridge/rootstock/rsvariables"
	"github.com/leafbridge/rootstock/stagingfs"
)

// RunningDeployment holds the state of a single deployment attempt. It is
// prepared by the caller, handed to the engine, and threaded through each
// convention in turn. It is never shared between attempts.
type RunningDeployment struct {
	// ID uniquely identifies this deployment attempt.
	ID rsdeploy.DeploymentID

	// Target identifies what is being deployed to.
	Target rsdeploy.TargetID

	// Package describes the deployment package being installed.
	Package rsdeploy.PackageInfo

	// Staging is the staging directory for this attempt. Conventions write
	// files through it so that all paths stay confined.
	Staging stagingfs.DeploymentDir

	// InstallDir is the directory that holds the installed result. It starts
	// as the staging directory and is updated when the deployment is copied
	// to a custom installation directory.
	InstallDir string

	// Variables holds the variables available to the deployment.
	Variables *rsvariables.Store

	// Force makes the idempotency check redeploy even when the fingerprint
	// matches the previous successful deployment.
	Force bool

	// SkipJournal suppresses the journal entry for this attempt.
	SkipJournal bool

	// SkipRemaining terminates the run after the current convention without
	// an error. The engine checks it between conventions.
	SkipRemaining bool

	// Previous is the most recent journal entry for the target, or nil when
	// the target has never been deployed.
	Previous *rsjournal.Entry

	// Fingerprint identifies the package and variables of this attempt.
	Fingerprint rsjournal.Fingerprint

	files       map[string]struct{}
	directories map[string]struct{}
}

// RecordFile notes that the deployment created or replaced the file at the
// given path. Recorded paths feed the journal entry's file manifest and
// stale file cleanup.
func (d *RunningDeployment) RecordFile(path string) {
	if d.files == nil {
		d.files = make(map[string]struct{})
	}
	d.files[path] = struct{}{}
}

// RecordDirectory notes that the deployment created the directory at the
// given path.
func (d *RunningDeployment) RecordDirectory(path string) {
	if d.directories == nil {
		d.directories = make(map[string]struct{})
	}
	d.directories[path] = struct{}{}
}

// Files returns a sorted copy of the file paths recorded so far.
func (d *RunningDeployment) Files() []string {
	return sortedKeys(d.files)
}

// Directories returns a sorted copy of the directory paths recorded so far.
func (d *RunningDeployment) Directories() []string {
	return sortedKeys(d.directories)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
