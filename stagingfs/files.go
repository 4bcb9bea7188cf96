package stagingfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MkdirAll ensures that the given relative directory path and all of its
// parents exist within the staging directory.
//
// If name does not identify a local file path, or if directory creation
// fails, it returns an error.
func (d DeploymentDir) MkdirAll(name string) error {
	localized, err := filepath.Localize(name)
	if err != nil {
		return err
	}
	if localized == "." {
		return nil
	}

	var built string
	for _, part := range strings.Split(localized, string(filepath.Separator)) {
		built = filepath.Join(built, part)
		if err := d.dir.Mkdir(built, 0755); err != nil && !errors.Is(err, fs.ErrExist) {
			return err
		}
	}
	return nil
}

// WriteFile reads data from r and writes it to the provided relative file
// path, creating parent directories as needed. It continues until the
// reader returns io.EOF or an error is encountered.
//
// If a non-zero modified time is provided, it is set as the file's
// modification time.
//
// The standard unix file separator, forward slash (/), must be used as the
// separator in the provided path.
func (d DeploymentDir) WriteFile(name string, r io.Reader, modified time.Time) (written int64, err error) {
	// Ensure that the path is local to the staging directory.
	localized, err := filepath.Localize(name)
	if err != nil {
		return 0, err
	}

	// If this file is in a subdirectory, make sure the subdirectory exists.
	if dir := filepath.Dir(localized); dir != "." {
		if err := d.MkdirAll(dir); err != nil {
			return 0, fmt.Errorf("failed to create parent directory: %w", err)
		}
	}

	// Create the file.
	file, err := d.dir.Create(localized)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	// Write the file content.
	written, err = io.Copy(file, r)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return written, err
	}

	// Preserve the modification date, if available.
	if !modified.IsZero() {
		if err := os.Chtimes(filepath.Join(d.path, localized), time.Time{}, modified); err != nil {
			return written, fmt.Errorf("failed to set modification time: %w", err)
		}
	}

	return written, nil
}

// ReadFile returns the content of the file at the provided relative path.
func (d DeploymentDir) ReadFile(name string) ([]byte, error) {
	localized, err := filepath.Localize(name)
	if err != nil {
		return nil, err
	}

	file, err := d.dir.Open(localized)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// Stat returns information about the file at the provided relative path.
func (d DeploymentDir) Stat(name string) (fs.FileInfo, error) {
	localized, err := filepath.Localize(name)
	if err != nil {
		return nil, err
	}
	return d.dir.Stat(localized)
}

// FS returns a read-only view of the staging directory.
func (d DeploymentDir) FS() fs.FS {
	return d.dir.FS()
}
