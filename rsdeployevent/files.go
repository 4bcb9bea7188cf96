package rsdeployevent

import (
	"fmt"
	"log/slog"

	"github.com/gentlemanautomaton/structformat"
	"github.com/leafbridge/rootstock/filehash"
	"github.com/leafbridge/rootstock/rsdeploy"
)

// PackageVerified is an event that records the result of verifying a
// deployment package against its expected hash.
type PackageVerified struct {
	Deployment  rsdeploy.DeploymentID
	PackagePath string
	Hash        filehash.Entry
}

// Component identifies the component that generated the event.
func (e PackageVerified) Component() string {
	return "verification"
}

// Level returns the level of the event.
func (e PackageVerified) Level() slog.Level {
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e PackageVerified) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WriteStandard(fmt.Sprintf("The \"%s\" package matches its expected %s hash.", e.PackagePath, e.Hash.Type))

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e PackageVerified) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e PackageVerified) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("package-path", e.PackagePath),
		slog.String("hash", e.Hash.String()),
	}
}

// SubstitutionApplied is an event that occurs when variable substitution
// has been applied to a staged file.
type SubstitutionApplied struct {
	Deployment   rsdeploy.DeploymentID
	Path         string
	Replacements int
}

// Component identifies the component that generated the event.
func (e SubstitutionApplied) Component() string {
	return "file"
}

// Level returns the level of the event.
func (e SubstitutionApplied) Level() slog.Level {
	return slog.LevelDebug
}

// Message returns a description of the event.
func (e SubstitutionApplied) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WriteStandard(fmt.Sprintf("Substituted %d %s in \"%s\".", e.Replacements, plural(e.Replacements, "variable reference", "variable references"), e.Path))

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e SubstitutionApplied) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e SubstitutionApplied) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("path", e.Path),
		slog.Int("replacements", e.Replacements),
	}
}

// TransformApplied is an event that occurs when a configuration transform
// has been applied to a staged file.
type TransformApplied struct {
	Deployment rsdeploy.DeploymentID
	Patch      string
	Target     string
}

// Component identifies the component that generated the event.
func (e TransformApplied) Component() string {
	return "file"
}

// Level returns the level of the event.
func (e TransformApplied) Level() slog.Level {
	return slog.LevelDebug
}

// Message returns a description of the event.
func (e TransformApplied) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WriteStandard(fmt.Sprintf("Applied the \"%s\" transform to \"%s\".", e.Patch, e.Target))

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e TransformApplied) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e TransformApplied) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("patch", e.Patch),
		slog.String("target", e.Target),
	}
}

// InstallCopied is an event that occurs when the staged deployment has
// been copied to a custom installation directory.
type InstallCopied struct {
	Deployment  rsdeploy.DeploymentID
	Source      string
	Destination string
	Files       int
}

// Component identifies the component that generated the event.
func (e InstallCopied) Component() string {
	return "file"
}

// Level returns the level of the event.
func (e InstallCopied) Level() slog.Level {
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e InstallCopied) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WriteStandard(fmt.Sprintf("Copied %d %s from \"%s\" to \"%s\".", e.Files, plural(e.Files, "file", "files"), e.Source, e.Destination))

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e InstallCopied) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e InstallCopied) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("source", e.Source),
		slog.String("destination", e.Destination),
		slog.Int("files", e.Files),
	}
}

// StaleFilesPurged is an event that occurs when files left behind by a
// previous deployment have been removed from the installation directory.
type StaleFilesPurged struct {
	Deployment rsdeploy.DeploymentID
	Directory  string
	Removed    int
}

// Component identifies the component that generated the event.
func (e StaleFilesPurged) Component() string {
	return "file"
}

// Level returns the level of the event.
func (e StaleFilesPurged) Level() slog.Level {
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e StaleFilesPurged) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WriteStandard(fmt.Sprintf("Purged %d stale %s from \"%s\".", e.Removed, plural(e.Removed, "file", "files"), e.Directory))

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e StaleFilesPurged) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e StaleFilesPurged) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("directory", e.Directory),
		slog.Int("removed", e.Removed),
	}
}

// WebServerRegistered is an event that occurs when the deployed site has
// been registered with the local web server.
type WebServerRegistered struct {
	Deployment rsdeploy.DeploymentID
	Site       string
	Root       string
}

// Component identifies the component that generated the event.
func (e WebServerRegistered) Component() string {
	return "webserver"
}

// Level returns the level of the event.
func (e WebServerRegistered) Level() slog.Level {
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e WebServerRegistered) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WriteStandard(fmt.Sprintf("Registered the \"%s\" site with a document root of \"%s\".", e.Site, e.Root))

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e WebServerRegistered) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e WebServerRegistered) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("site", e.Site),
		slog.String("root", e.Root),
	}
}
