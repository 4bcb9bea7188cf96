package stagingfs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leafbridge/rootstock/rsdeploy"
)

// PackageFile is an open deployment package.
type PackageFile struct {
	Path   string
	Format rsdeploy.PackageFormat
	Size   int64
	*os.File
}

// OpenPackage opens the deployment package at the given path and infers
// its format from the file name. A path that refers to a directory is
// treated as an unpacked package.
//
// It is the caller's responsibility to close the package when finished
// with it.
func OpenPackage(path string) (PackageFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return PackageFile{}, fmt.Errorf("failed to resolve the package path \"%s\": %w", path, err)
	}

	file, err := os.Open(abs)
	if err != nil {
		return PackageFile{}, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return PackageFile{}, err
	}

	if info.IsDir() {
		return PackageFile{
			Path:   abs,
			Format: rsdeploy.FormatUnpacked,
			File:   file,
		}, nil
	}

	if !info.Mode().IsRegular() {
		file.Close()
		return PackageFile{}, fmt.Errorf("the \"%s\" package is not a regular file or a directory", abs)
	}

	format, err := rsdeploy.DetectPackageFormat(abs)
	if err != nil {
		file.Close()
		return PackageFile{}, err
	}

	return PackageFile{
		Path:   abs,
		Format: format,
		Size:   info.Size(),
		File:   file,
	}, nil
}

// Info returns the package description used by a deployment.
func (f PackageFile) Info() rsdeploy.PackageInfo {
	return rsdeploy.PackageInfo{
		Path:   f.Path,
		Format: f.Format,
	}
}
