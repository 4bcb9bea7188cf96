package rsengine_test

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsdeployevent"
	"github.com/leafbridge/rootstock/rsengine"
	"github.com/leafbridge/rootstock/rsevent"
	"github.com/leafbridge/rootstock/rsvariables"
)

var packageModified = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

const packageIndex = "<html>billing</html>"

// writePackageTar writes the test package layout as a tar stream.
func writePackageTar(t *testing.T, w io.Writer) {
	t.Helper()
	tw := tar.NewWriter(w)

	entries := []struct {
		header tar.Header
		body   string
	}{
		{header: tar.Header{Name: "app/", Typeflag: tar.TypeDir, Mode: 0o755, ModTime: packageModified}},
		{header: tar.Header{Name: "app/index.html", Typeflag: tar.TypeReg, Mode: 0o644, ModTime: packageModified}, body: packageIndex},
		{header: tar.Header{Name: "app/css/site.css", Typeflag: tar.TypeReg, Mode: 0o644, ModTime: packageModified}, body: "body {}"},
	}
	for _, entry := range entries {
		entry.header.Size = int64(len(entry.body))
		if err := tw.WriteHeader(&entry.header); err != nil {
			t.Fatalf("failed to write the tar header for %s: %v", entry.header.Name, err)
		}
		if _, err := io.WriteString(tw, entry.body); err != nil {
			t.Fatalf("failed to write the tar body for %s: %v", entry.header.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close the tar stream: %v", err)
	}
}

// buildPackage writes the test package to disk in the requested format and
// returns its path.
func buildPackage(t *testing.T, dir string, format rsdeploy.PackageFormat) string {
	t.Helper()

	switch format {
	case rsdeploy.FormatUnpacked:
		source := filepath.Join(dir, "unpacked")
		if err := os.MkdirAll(filepath.Join(source, "app", "css"), 0o755); err != nil {
			t.Fatalf("failed to create the package tree: %v", err)
		}
		if err := os.WriteFile(filepath.Join(source, "app", "index.html"), []byte(packageIndex), 0o644); err != nil {
			t.Fatalf("failed to write the package file: %v", err)
		}
		if err := os.WriteFile(filepath.Join(source, "app", "css", "site.css"), []byte("body {}"), 0o644); err != nil {
			t.Fatalf("failed to write the package file: %v", err)
		}
		return source
	case rsdeploy.FormatZip:
		path := filepath.Join(dir, "pkg.zip")
		file, err := os.Create(path)
		if err != nil {
			t.Fatalf("failed to create the package: %v", err)
		}
		zw := zip.NewWriter(file)
		if _, err := zw.Create("app/"); err != nil {
			t.Fatalf("failed to add the directory entry: %v", err)
		}
		for name, body := range map[string]string{
			"app/index.html":   packageIndex,
			"app/css/site.css": "body {}",
		} {
			w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: packageModified})
			if err != nil {
				t.Fatalf("failed to add %s: %v", name, err)
			}
			if _, err := io.WriteString(w, body); err != nil {
				t.Fatalf("failed to write %s: %v", name, err)
			}
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("failed to close the archive: %v", err)
		}
		if err := file.Close(); err != nil {
			t.Fatalf("failed to close the package: %v", err)
		}
		return path
	}

	// The remaining formats are tar streams behind a compressor.
	path := filepath.Join(dir, "pkg."+string(format))
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create the package: %v", err)
	}

	switch format {
	case rsdeploy.FormatTar:
		writePackageTar(t, file)
	case rsdeploy.FormatTarGzip:
		gz := gzip.NewWriter(file)
		writePackageTar(t, gz)
		if err := gz.Close(); err != nil {
			t.Fatalf("failed to close the gzip stream: %v", err)
		}
	case rsdeploy.FormatTarZstd:
		zw, err := zstd.NewWriter(file)
		if err != nil {
			t.Fatalf("failed to create the zstd stream: %v", err)
		}
		writePackageTar(t, zw)
		if err := zw.Close(); err != nil {
			t.Fatalf("failed to close the zstd stream: %v", err)
		}
	case rsdeploy.FormatTarLZ4:
		lw := lz4.NewWriter(file)
		writePackageTar(t, lw)
		if err := lw.Close(); err != nil {
			t.Fatalf("failed to close the lz4 stream: %v", err)
		}
	default:
		t.Fatalf("no package builder for format %s", format)
	}

	if err := file.Close(); err != nil {
		t.Fatalf("failed to close the package: %v", err)
	}
	return path
}

func TestExtractPackageConvention(t *testing.T) {
	formats := []rsdeploy.PackageFormat{
		rsdeploy.FormatZip,
		rsdeploy.FormatTar,
		rsdeploy.FormatTarGzip,
		rsdeploy.FormatTarZstd,
		rsdeploy.FormatTarLZ4,
		rsdeploy.FormatUnpacked,
	}

	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			home := t.TempDir()
			pkg := buildPackage(t, home, format)
			staging := openStaging(t, home, "run-1")

			events := &captureHandler{}
			opts := rsengine.PipelineOptions{Events: rsevent.Recorder{Handler: events}}
			convention := pipelineConvention(t, opts, "extract-package")

			deployment := &rsengine.RunningDeployment{
				ID:        "run-1",
				Target:    engineTarget,
				Package:   rsdeploy.PackageInfo{Path: pkg, Format: format},
				Staging:   staging,
				Variables: rsvariables.NewStore(),
			}
			if err := convention.Execute(context.Background(), deployment); err != nil {
				t.Fatalf("the extraction failed: %v", err)
			}

			content, err := staging.ReadFile("app/index.html")
			if err != nil {
				t.Fatalf("the extracted file is missing: %v", err)
			}
			if string(content) != packageIndex {
				t.Errorf("extracted content: %q", content)
			}
			if _, err := staging.Stat("app/css/site.css"); err != nil {
				t.Errorf("the nested file is missing: %v", err)
			}

			files := deployment.Files()
			if !slices.Contains(files, "app/index.html") || !slices.Contains(files, "app/css/site.css") {
				t.Errorf("recorded files: %v", files)
			}
			if directories := deployment.Directories(); !slices.Contains(directories, "app") {
				t.Errorf("recorded directories: %v", directories)
			}

			stopped := eventsOf[rsdeployevent.ExtractionStopped](events)
			if len(stopped) != 1 {
				t.Fatalf("extraction stop events: %d (expected 1)", len(stopped))
			}
			if stopped[0].Err != nil {
				t.Errorf("the stop event reports an error: %v", stopped[0].Err)
			}
			if stopped[0].Stats.Files != 2 {
				t.Errorf("extracted file count: %d (expected 2)", stopped[0].Stats.Files)
			}
			if stopped[0].Stats.TotalBytes == 0 {
				t.Error("the stop event reports zero extracted bytes")
			}
		})
	}
}

func TestExtractPackagePreservesModTime(t *testing.T) {
	home := t.TempDir()
	pkg := buildPackage(t, home, rsdeploy.FormatZip)
	staging := openStaging(t, home, "run-1")

	convention := pipelineConvention(t, rsengine.PipelineOptions{}, "extract-package")
	deployment := &rsengine.RunningDeployment{
		ID:        "run-1",
		Target:    engineTarget,
		Package:   rsdeploy.PackageInfo{Path: pkg, Format: rsdeploy.FormatZip},
		Staging:   staging,
		Variables: rsvariables.NewStore(),
	}
	if err := convention.Execute(context.Background(), deployment); err != nil {
		t.Fatalf("the extraction failed: %v", err)
	}

	fi, err := staging.Stat("app/index.html")
	if err != nil {
		t.Fatalf("the extracted file is missing: %v", err)
	}
	// ZIP timestamps are coarse; allow a couple of seconds of drift.
	if drift := fi.ModTime().Sub(packageModified); drift < -2*time.Second || drift > 2*time.Second {
		t.Errorf("modification time: %s (expected about %s)", fi.ModTime(), packageModified)
	}
}

func TestExtractPackageRejectsEscapingEntries(t *testing.T) {
	home := t.TempDir()

	path := filepath.Join(home, "evil.zip")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create the package: %v", err)
	}
	zw := zip.NewWriter(file)
	w, err := zw.Create("../evil.txt")
	if err != nil {
		t.Fatalf("failed to add the entry: %v", err)
	}
	if _, err := io.WriteString(w, "escaped"); err != nil {
		t.Fatalf("failed to write the entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close the archive: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("failed to close the package: %v", err)
	}

	staging := openStaging(t, home, "run-1")
	events := &captureHandler{}
	opts := rsengine.PipelineOptions{Events: rsevent.Recorder{Handler: events}}
	convention := pipelineConvention(t, opts, "extract-package")

	deployment := &rsengine.RunningDeployment{
		ID:        "run-1",
		Target:    engineTarget,
		Package:   rsdeploy.PackageInfo{Path: path, Format: rsdeploy.FormatZip},
		Staging:   staging,
		Variables: rsvariables.NewStore(),
	}
	if err := convention.Execute(context.Background(), deployment); err == nil {
		t.Fatal("an entry that escapes the staging directory was extracted")
	}

	if _, err := os.Stat(filepath.Join(home, "staging", "evil.txt")); !os.IsNotExist(err) {
		t.Errorf("the escaping entry reached the file system: %v", err)
	}

	stopped := eventsOf[rsdeployevent.ExtractionStopped](events)
	if len(stopped) != 1 || stopped[0].Err == nil {
		t.Errorf("extraction stop events: %+v (expected one failed stop)", stopped)
	}
}

func TestExtractPackageUnknownFormat(t *testing.T) {
	home := t.TempDir()
	staging := openStaging(t, home, "run-1")

	convention := pipelineConvention(t, rsengine.PipelineOptions{}, "extract-package")
	deployment := &rsengine.RunningDeployment{
		ID:        "run-1",
		Target:    engineTarget,
		Package:   rsdeploy.PackageInfo{Path: "/var/tmp/pkg.rar", Format: "rar"},
		Staging:   staging,
		Variables: rsvariables.NewStore(),
	}
	if err := convention.Execute(context.Background(), deployment); err == nil {
		t.Error("an unknown package format was accepted")
	}
}
