package rsengine

import (
	"context"
	"fmt"

	"github.com/leafbridge/rootstock/filehash"
	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsdeployevent"
	"github.com/leafbridge/rootstock/rsevent"
)

// verifyPackageConvention compares the package artifact against the hash
// named by the expected hash variable. A deployment without an expected
// hash passes without touching the package.
type verifyPackageConvention struct {
	events rsevent.Recorder
}

func (c verifyPackageConvention) Name() string {
	return "verify-package"
}

func (c verifyPackageConvention) Execute(ctx context.Context, deployment *RunningDeployment) error {
	expected := deployment.Variables.Value(rsdeploy.VariableExpectedHash)
	if expected == "" {
		return nil
	}

	entry, err := filehash.ParseEntry(expected)
	if err != nil {
		return fmt.Errorf("the expected package hash could not be parsed: %w", err)
	}

	hashes, err := filehash.File(deployment.Package.Path, entry.Type)
	if err != nil {
		return fmt.Errorf("failed to hash the package \"%s\": %w", deployment.Package.Path, err)
	}
	if !hashes.Contains(entry) {
		return fmt.Errorf("the \"%s\" package does not match the expected %s hash", deployment.Package.Path, entry.Type)
	}

	// Keep the verified hashes with the package so they land in the
	// journal entry.
	if deployment.Package.Hashes == nil {
		deployment.Package.Hashes = make(filehash.Map, len(hashes))
	}
	for typ, value := range hashes {
		deployment.Package.Hashes[typ] = value
	}

	c.events.Record(rsdeployevent.PackageVerified{
		Deployment:  deployment.ID,
		PackagePath: deployment.Package.Path,
		Hash:        entry,
	})
	return nil
}
