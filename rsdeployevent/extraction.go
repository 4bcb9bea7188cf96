package rsdeployevent

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gentlemanautomaton/structformat"
	"github.com/leafbridge/rootstock/rsdeploy"
)

// ExtractionStats holds information about files that have been extracted.
type ExtractionStats struct {
	Files       int
	Directories int
	TotalBytes  int64
}

// String returns a string representation of the stats in the form
// "100 files and 10 directories".
func (stats ExtractionStats) String() string {
	switch {
	case stats.Files > 0 && stats.Directories > 0:
		return fmt.Sprintf("%d %s and %d %s",
			stats.Files,
			plural(stats.Files, "file", "files"),
			stats.Directories,
			plural(stats.Directories, "directory", "directories"))
	case stats.Files > 0:
		return fmt.Sprintf("%d %s",
			stats.Files,
			plural(stats.Files, "file", "files"))
	case stats.Directories > 0:
		return fmt.Sprintf("%d %s",
			stats.Directories,
			plural(stats.Directories, "directory", "directories"))
	default:
		return "no files and no directories"
	}
}

// ExtractionStarted is an event that occurs when package extraction has
// started.
type ExtractionStarted struct {
	Deployment  rsdeploy.DeploymentID
	PackagePath string
	Format      rsdeploy.PackageFormat
	Destination string
}

// Component identifies the component that generated the event.
func (e ExtractionStarted) Component() string {
	return "extraction"
}

// Level returns the level of the event.
func (e ExtractionStarted) Level() slog.Level {
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e ExtractionStarted) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WriteStandard(fmt.Sprintf("Starting extraction of the \"%s\" package to \"%s\".", e.PackagePath, e.Destination))
	builder.WriteNote(string(e.Format))

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e ExtractionStarted) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e ExtractionStarted) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("package-path", e.PackagePath),
		slog.String("format", string(e.Format)),
		slog.String("destination", e.Destination),
	}
}

// ExtractionStopped is an event that occurs when package extraction has
// stopped.
type ExtractionStopped struct {
	Deployment  rsdeploy.DeploymentID
	PackagePath string
	Format      rsdeploy.PackageFormat
	Destination string
	Stats       ExtractionStats
	Started     time.Time
	Stopped     time.Time
	Err         error
}

// Component identifies the component that generated the event.
func (e ExtractionStopped) Component() string {
	return "extraction"
}

// Level returns the level of the event.
func (e ExtractionStopped) Level() slog.Level {
	if e.Err != nil {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e ExtractionStopped) Message() string {
	var builder structformat.Builder

	duration := e.Duration().Round(time.Millisecond * 10)

	builder.WritePrimary(string(e.Deployment))
	if e.Err != nil {
		if e.Stats.Files > 0 || e.Stats.Directories > 0 {
			builder.WriteStandard(fmt.Sprintf("The extraction of \"%s\" to \"%s\" failed after writing %s in %s (%s mbps): %s.", e.PackagePath, e.Destination, e.Stats, duration, e.BitrateInMbps(), e.Err))
		} else {
			builder.WriteStandard(fmt.Sprintf("The extraction of \"%s\" to \"%s\" failed due to an error: %s.", e.PackagePath, e.Destination, e.Err))
		}
	} else {
		builder.WriteStandard(fmt.Sprintf("The extraction of %s from \"%s\" to \"%s\" was completed in %s (%s mbps).", e.Stats, e.PackagePath, e.Destination, duration, e.BitrateInMbps()))
	}

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e ExtractionStopped) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e ExtractionStopped) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("package-path", e.PackagePath),
		slog.String("format", string(e.Format)),
		slog.String("destination", e.Destination),
		slog.Group("stats", "files", e.Stats.Files, "directories", e.Stats.Directories, "total-bytes", e.Stats.TotalBytes),
		slog.Time("started", e.Started),
		slog.Time("stopped", e.Stopped),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}
	return attrs
}

// Duration returns the duration of the extraction process.
func (e ExtractionStopped) Duration() time.Duration {
	return e.Stopped.Sub(e.Started)
}

// BitrateInMbps returns the bitrate of the extraction in mebibits per second.
func (e ExtractionStopped) BitrateInMbps() string {
	return bitrate(e.Stats.TotalBytes, e.Duration())
}
