package rsengine

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsdeployevent"
	"github.com/leafbridge/rootstock/rsevent"
)

// extractPackageConvention unpacks the deployment package into the staging
// directory. Every file and directory it creates is recorded in the
// deployment's side-effect manifest.
//
// Archive entries that would escape the staging directory stop the
// extraction with an error. Entries that are neither regular files nor
// directories are skipped.
type extractPackageConvention struct {
	events rsevent.Recorder
}

func (c extractPackageConvention) Name() string {
	return "extract-package"
}

func (c extractPackageConvention) Execute(ctx context.Context, deployment *RunningDeployment) error {
	// Record the start of the extraction.
	c.events.Record(rsdeployevent.ExtractionStarted{
		Deployment:  deployment.ID,
		PackagePath: deployment.Package.Path,
		Format:      deployment.Package.Format,
		Destination: deployment.Staging.Path(),
	})

	// Record the time that the extraction started.
	started := time.Now()

	// Extract the package according to its format.
	var stats rsdeployevent.ExtractionStats
	err := func() error {
		switch deployment.Package.Format {
		case rsdeploy.FormatZip:
			return c.extractZip(ctx, deployment, &stats)
		case rsdeploy.FormatTar, rsdeploy.FormatTarGzip, rsdeploy.FormatTarZstd, rsdeploy.FormatTarLZ4:
			return c.extractTar(ctx, deployment, &stats)
		case rsdeploy.FormatUnpacked:
			return c.copyTree(ctx, deployment, &stats)
		default:
			return fmt.Errorf("the package format \"%s\" cannot be extracted", deployment.Package.Format)
		}
	}()

	// Record the time that the extraction stopped.
	stopped := time.Now()

	// Record the end of the extraction.
	c.events.Record(rsdeployevent.ExtractionStopped{
		Deployment:  deployment.ID,
		PackagePath: deployment.Package.Path,
		Format:      deployment.Package.Format,
		Destination: deployment.Staging.Path(),
		Stats:       stats,
		Started:     started,
		Stopped:     stopped,
		Err:         err,
	})

	return err
}

func (c extractPackageConvention) extractZip(ctx context.Context, deployment *RunningDeployment, stats *rsdeployevent.ExtractionStats) error {
	// Open the package file.
	file, err := os.Open(deployment.Package.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Get the current size of the file.
	fi, err := file.Stat()
	if err != nil {
		return err
	}

	// Prepare a ZIP file reader.
	reader, err := zip.NewReader(file, fi.Size())
	if err != nil {
		return err
	}

	// Process each file and directory in the archive.
	for _, zipFile := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		name, ok := cleanArchivePath(zipFile.Name)
		if !ok {
			continue
		}
		info := zipFile.FileInfo()

		// If this is a directory, make sure it exists.
		if info.IsDir() {
			if err := deployment.Staging.MkdirAll(name); err != nil {
				return fmt.Errorf("failed to extract \"%s\": %w", zipFile.Name, err)
			}
			deployment.RecordDirectory(name)
			stats.Directories++
			continue
		}

		// Skip entries that are not regular files.
		if !info.Mode().IsRegular() {
			continue
		}

		// Open the file within the archive.
		fileReader, err := zipFile.Open()
		if err != nil {
			return fmt.Errorf("failed to extract \"%s\": %w", zipFile.Name, err)
		}

		// Write the file to the staging directory, preserving its
		// modification time.
		written, err := deployment.Staging.WriteFile(name, newReaderWithContext(ctx, fileReader), zipFile.Modified)
		fileReader.Close()
		if err != nil {
			return fmt.Errorf("failed to extract \"%s\": %w", zipFile.Name, err)
		}

		deployment.RecordFile(name)
		stats.Files++
		stats.TotalBytes += written
	}
	return nil
}

func (c extractPackageConvention) extractTar(ctx context.Context, deployment *RunningDeployment, stats *rsdeployevent.ExtractionStats) error {
	// Open the package file.
	file, err := os.Open(deployment.Package.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Wrap the file in a decompressor matching the package format.
	var source io.Reader
	switch deployment.Package.Format {
	case rsdeploy.FormatTar:
		source = file
	case rsdeploy.FormatTarGzip:
		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("failed to open the compressed package: %w", err)
		}
		defer gz.Close()
		source = gz
	case rsdeploy.FormatTarZstd:
		zr, err := zstd.NewReader(file)
		if err != nil {
			return fmt.Errorf("failed to open the compressed package: %w", err)
		}
		defer zr.Close()
		source = zr
	case rsdeploy.FormatTarLZ4:
		source = lz4.NewReader(file)
	default:
		return fmt.Errorf("the package format \"%s\" is not a tar format", deployment.Package.Format)
	}

	// Process each entry in the archive.
	reader := tar.NewReader(source)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read the package archive: %w", err)
		}

		name, ok := cleanArchivePath(header.Name)
		if !ok {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := deployment.Staging.MkdirAll(name); err != nil {
				return fmt.Errorf("failed to extract \"%s\": %w", header.Name, err)
			}
			deployment.RecordDirectory(name)
			stats.Directories++
		case tar.TypeReg:
			written, err := deployment.Staging.WriteFile(name, newReaderWithContext(ctx, reader), header.ModTime)
			if err != nil {
				return fmt.Errorf("failed to extract \"%s\": %w", header.Name, err)
			}
			deployment.RecordFile(name)
			stats.Files++
			stats.TotalBytes += written
		}
	}
}

func (c extractPackageConvention) copyTree(ctx context.Context, deployment *RunningDeployment, stats *rsdeployevent.ExtractionStats) error {
	source := deployment.Package.Path
	return filepath.WalkDir(source, func(current string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(source, current)
		if err != nil {
			return err
		}
		name, ok := cleanArchivePath(filepath.ToSlash(rel))
		if !ok {
			return nil
		}

		if entry.IsDir() {
			if err := deployment.Staging.MkdirAll(name); err != nil {
				return err
			}
			deployment.RecordDirectory(name)
			stats.Directories++
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		file, err := os.Open(current)
		if err != nil {
			return err
		}
		written, err := deployment.Staging.WriteFile(name, newReaderWithContext(ctx, file), info.ModTime())
		file.Close()
		if err != nil {
			return err
		}

		deployment.RecordFile(name)
		stats.Files++
		stats.TotalBytes += written
		return nil
	})
}

// cleanArchivePath normalizes an archive entry path to a clean, slash
// separated relative path. It reports false for entries that name the
// archive root. Paths that attempt to escape the staging directory are
// passed through so that the staging layer can reject them.
func cleanArchivePath(name string) (string, bool) {
	cleaned := path.Clean(strings.TrimSuffix(name, "/"))
	if cleaned == "." || cleaned == "" {
		return "", false
	}
	return cleaned, true
}
