package rsengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsdeployevent"
	"github.com/leafbridge/rootstock/rsevent"
)

// customInstallCopyConvention copies the staged tree into the configured
// custom installation directory and makes that directory the deployment's
// install directory. When purging is enabled, files recorded by the
// previous deployment that are absent from this one are removed.
//
// A deployment without a custom installation directory is a no-op: the
// staged tree itself is the installed result.
type customInstallCopyConvention struct {
	events rsevent.Recorder
}

func (c customInstallCopyConvention) Name() string {
	return "custom-install-copy"
}

func (c customInstallCopyConvention) Execute(ctx context.Context, deployment *RunningDeployment) error {
	destination := deployment.Variables.Value(rsdeploy.VariableCustomInstallDirectory)
	if destination == "" {
		return nil
	}

	files, err := copyStagedTree(ctx, deployment, destination)
	if err != nil {
		return err
	}

	deployment.InstallDir = destination
	c.events.Record(rsdeployevent.InstallCopied{
		Deployment:  deployment.ID,
		Source:      deployment.Staging.Path(),
		Destination: destination,
		Files:       files,
	})

	if deployment.Variables.Flag(rsdeploy.VariableCustomInstallDirectoryPurge) {
		if err := c.purgeStaleFiles(deployment, destination); err != nil {
			return err
		}
	}
	return nil
}

// copyStagedTree copies every file and directory in the staging directory
// into destination, recording each in the deployment's manifest. It
// returns the number of files copied.
func copyStagedTree(ctx context.Context, deployment *RunningDeployment, destination string) (int, error) {
	if err := os.MkdirAll(destination, 0755); err != nil {
		return 0, fmt.Errorf("failed to create the installation directory \"%s\": %w", destination, err)
	}

	files := 0
	staged := deployment.Staging.FS()
	err := fs.WalkDir(staged, ".", func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if name == "." {
			return nil
		}

		target := filepath.Join(destination, filepath.FromSlash(name))
		if entry.IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			deployment.RecordDirectory(name)
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		if err := copyStagedFile(staged, name, target); err != nil {
			return err
		}
		deployment.RecordFile(name)
		files++
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("failed to copy the staged deployment to \"%s\": %w", destination, err)
	}
	return files, nil
}

// copyStagedFile copies a single staged file to target, preserving its
// modification time.
func copyStagedFile(staged fs.FS, name, target string) error {
	source, err := staged.Open(name)
	if err != nil {
		return err
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	_, err = io.Copy(file, source)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	return os.Chtimes(target, info.ModTime(), info.ModTime())
}

// purgeStaleFiles removes files recorded by the previous deployment that
// this deployment did not produce. Only files are removed; directories
// are left in place.
func (c customInstallCopyConvention) purgeStaleFiles(deployment *RunningDeployment, destination string) error {
	previous := deployment.Previous
	if previous == nil || previous.InstallDir != destination {
		return nil
	}

	current := make(map[string]bool)
	for _, file := range deployment.Files() {
		current[file] = true
	}

	removed := 0
	for _, file := range previous.Files {
		if current[file] {
			continue
		}

		// A journal entry with a non-local path must not reach outside
		// the installation directory.
		localized, err := filepath.Localize(file)
		if err != nil {
			continue
		}

		path := filepath.Join(destination, localized)
		switch err := os.Remove(path); {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("failed to purge the stale file \"%s\": %w", path, err)
		}
	}

	if removed > 0 {
		c.events.Record(rsdeployevent.StaleFilesPurged{
			Deployment: deployment.ID,
			Directory:  destination,
			Removed:    removed,
		})
	}
	return nil
}
