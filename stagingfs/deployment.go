// Package stagingfs manages the staging directories that deployments are
// extracted into. Each deployment run receives its own directory under the
// Rootstock home, and all writes into it are confined by os.Root.
package stagingfs

import (
	"os"
	"path/filepath"

	"github.com/leafbridge/rootstock/rsdeploy"
)

// StagingDir is the name of the staging area within the Rootstock home.
const StagingDir = "staging"

// DeploymentDir is the staging directory for a single deployment run.
//
// The directory persists after the run: when no custom installation
// directory is configured, the staged tree is the installed result.
type DeploymentDir struct {
	deployment rsdeploy.DeploymentID
	path       string
	dir        *os.Root
}

// OpenDeployment opens the staging directory for a deployment run within
// the given Rootstock home. If the directory does not already exist, it is
// created.
//
// It is the caller's responsibility to close the directory when finished
// with it.
func OpenDeployment(home string, id rsdeploy.DeploymentID) (DeploymentDir, error) {
	if err := id.Validate(); err != nil {
		return DeploymentDir{}, err
	}

	// Open the Rootstock home directory.
	root, err := os.OpenRoot(home)
	if err != nil {
		return DeploymentDir{}, err
	}
	defer root.Close()

	// Open the staging directory within the home.
	staging, err := openOrCreateRootInRoot(root, StagingDir, 0755)
	if err != nil {
		return DeploymentDir{}, err
	}
	defer staging.Close()

	// Open the directory for this deployment run.
	dir, err := openOrCreateRootInRoot(staging, string(id), 0755)
	if err != nil {
		return DeploymentDir{}, err
	}

	return DeploymentDir{
		deployment: id,
		path:       filepath.Join(home, StagingDir, string(id)),
		dir:        dir,
	}, nil
}

// Path returns the path of the staging directory.
func (d DeploymentDir) Path() string {
	return d.path
}

// Close releases any file handles or resources held by the staging
// directory. The directory and its contents remain on disk.
func (d DeploymentDir) Close() error {
	return d.dir.Close()
}

func openOrCreateRootInRoot(parent *os.Root, name string, perm os.FileMode) (*os.Root, error) {
	// Attempt to open an existing directory.
	child, err := parent.OpenRoot(name)
	if err == nil {
		return child, nil
	}

	// If the error is anything other than "not found", return it.
	if !os.IsNotExist(err) {
		return nil, err
	}

	// Attempt to create the directory.
	if err := parent.Mkdir(name, perm); err != nil {
		return nil, err
	}

	// Attempt to open the directory a second time.
	return parent.OpenRoot(name)
}
