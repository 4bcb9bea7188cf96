package rsdeploy

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/leafbridge/rootstock/filehash"
)

// Recognized package archive formats.
const (
	FormatZip      PackageFormat = "zip"
	FormatTar      PackageFormat = "tar"
	FormatTarGzip  PackageFormat = "tar.gz"
	FormatTarZstd  PackageFormat = "tar.zst"
	FormatTarLZ4   PackageFormat = "tar.lz4"
	FormatUnpacked PackageFormat = "unpacked"
)

// PackageFormat identifies the archive format of a deployment package.
type PackageFormat string

// Validate returns a non-nil error if the package format is not recognized.
func (f PackageFormat) Validate() error {
	switch f {
	case FormatZip, FormatTar, FormatTarGzip, FormatTarZstd, FormatTarLZ4, FormatUnpacked:
		return nil
	}
	return errors.New("the package format \"" + string(f) + "\" is not recognized")
}

// PackageInfo describes the deployment package that a deployment installs.
type PackageInfo struct {
	// Path is the location of the package file on the local file system.
	// An unpacked package refers to a directory instead of a file.
	Path string `json:"path"`

	// Format identifies the archive format of the package.
	Format PackageFormat `json:"format"`

	// Hashes holds the hashes of the package file, computed when the
	// deployment is prepared.
	Hashes filehash.Map `json:"hashes,omitzero"`
}

// Validate returns a non-nil error if the package information is invalid.
func (p PackageInfo) Validate() error {
	if p.Path == "" {
		return errors.New("the deployment package is missing a path")
	}
	return p.Format.Validate()
}

// DetectPackageFormat infers a package format from the package file name.
// It returns an error if the name does not carry a recognized extension.
func DetectPackageFormat(path string) (PackageFormat, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".zip"):
		return FormatZip, nil
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return FormatTarGzip, nil
	case strings.HasSuffix(name, ".tar.zst"):
		return FormatTarZstd, nil
	case strings.HasSuffix(name, ".tar.lz4"):
		return FormatTarLZ4, nil
	case strings.HasSuffix(name, ".tar"):
		return FormatTar, nil
	}
	return "", errors.New("unable to detect the package format of \"" + filepath.Base(path) + "\"")
}
