package rsdeployevent

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gentlemanautomaton/structformat"
	"github.com/leafbridge/rootstock/rsdeploy"
	"github.com/leafbridge/rootstock/rsjournal"
)

// PreviousInstallationFound is an event that occurs when the journal holds
// a record of an earlier deployment for the target.
type PreviousInstallationFound struct {
	Deployment rsdeploy.DeploymentID
	Previous   rsdeploy.DeploymentID
	Recorded   time.Time
	Successful bool
	Fingerprint rsjournal.Fingerprint
}

// Component identifies the component that generated the event.
func (e PreviousInstallationFound) Component() string {
	return "journal"
}

// Level returns the level of the event.
func (e PreviousInstallationFound) Level() slog.Level {
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e PreviousInstallationFound) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	if e.Successful {
		builder.WriteStandard(fmt.Sprintf("Found a previous successful deployment recorded %s.", e.Recorded.Local().Format(time.DateTime)))
	} else {
		builder.WriteStandard(fmt.Sprintf("Found a previous failed deployment recorded %s.", e.Recorded.Local().Format(time.DateTime)))
	}
	builder.WriteNote(string(e.Previous))

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e PreviousInstallationFound) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e PreviousInstallationFound) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("previous", string(e.Previous)),
		slog.Time("recorded", e.Recorded),
		slog.Bool("successful", e.Successful),
		slog.String("fingerprint", string(e.Fingerprint)),
	}
}

// FirstDeployment is an event that occurs when the journal holds no record
// of an earlier deployment for the target.
type FirstDeployment struct {
	Deployment rsdeploy.DeploymentID
	Target     rsdeploy.TargetID
}

// Component identifies the component that generated the event.
func (e FirstDeployment) Component() string {
	return "journal"
}

// Level returns the level of the event.
func (e FirstDeployment) Level() slog.Level {
	return slog.LevelDebug
}

// Message returns a description of the event.
func (e FirstDeployment) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WriteStandard(fmt.Sprintf("This is the first deployment for %s.", e.Target.Key()))

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e FirstDeployment) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e FirstDeployment) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("target", e.Target.Key()),
	}
}

// DeploymentAlreadyCurrent is an event that occurs when the deployment
// fingerprint matches the previous successful deployment and the remaining
// conventions will be skipped.
type DeploymentAlreadyCurrent struct {
	Deployment  rsdeploy.DeploymentID
	Previous    rsdeploy.DeploymentID
	Fingerprint rsjournal.Fingerprint
}

// Component identifies the component that generated the event.
func (e DeploymentAlreadyCurrent) Component() string {
	return "journal"
}

// Level returns the level of the event.
func (e DeploymentAlreadyCurrent) Level() slog.Level {
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e DeploymentAlreadyCurrent) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WriteStandard("The deployment matches the previous successful deployment. Remaining conventions will be skipped.")
	builder.WriteNote(string(e.Fingerprint))

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e DeploymentAlreadyCurrent) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e DeploymentAlreadyCurrent) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("previous", string(e.Previous)),
		slog.String("fingerprint", string(e.Fingerprint)),
	}
}

// JournalEntryRecorded is an event that occurs when the outcome of a
// deployment has been written to the journal.
type JournalEntryRecorded struct {
	Deployment rsdeploy.DeploymentID
	Target     rsdeploy.TargetID
	Path       string
	Successful bool
}

// Component identifies the component that generated the event.
func (e JournalEntryRecorded) Component() string {
	return "journal"
}

// Level returns the level of the event.
func (e JournalEntryRecorded) Level() slog.Level {
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e JournalEntryRecorded) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	if e.Successful {
		builder.WriteStandard("Recorded the successful deployment in the journal.")
	} else {
		builder.WriteStandard("Recorded the failed deployment in the journal.")
	}

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e JournalEntryRecorded) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e JournalEntryRecorded) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("target", e.Target.Key()),
		slog.String("path", e.Path),
		slog.Bool("successful", e.Successful),
	}
}

// JournalWriteFailed is an event that occurs when the outcome of a
// deployment could not be written to the journal.
type JournalWriteFailed struct {
	Deployment rsdeploy.DeploymentID
	Target     rsdeploy.TargetID
	Err        error
}

// Component identifies the component that generated the event.
func (e JournalWriteFailed) Component() string {
	return "journal"
}

// Level returns the level of the event.
func (e JournalWriteFailed) Level() slog.Level {
	return slog.LevelError
}

// Message returns a description of the event.
func (e JournalWriteFailed) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WriteStandard(fmt.Sprintf("Unable to record the deployment in the journal: %s.", e.Err))

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e JournalWriteFailed) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e JournalWriteFailed) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("target", e.Target.Key()),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}
	return attrs
}

// JournalSuppressed is an event that occurs when a deployment runs with
// journal recording disabled.
type JournalSuppressed struct {
	Deployment rsdeploy.DeploymentID
}

// Component identifies the component that generated the event.
func (e JournalSuppressed) Component() string {
	return "journal"
}

// Level returns the level of the event.
func (e JournalSuppressed) Level() slog.Level {
	return slog.LevelDebug
}

// Message returns a description of the event.
func (e JournalSuppressed) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WriteStandard("Journal recording is suppressed for this run.")

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e JournalSuppressed) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e JournalSuppressed) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
	}
}
