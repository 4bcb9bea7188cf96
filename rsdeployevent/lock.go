package rsdeployevent

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gentlemanautomaton/structformat"
	"github.com/leafbridge/rootstock/rsdeploy"
)

// LockAcquired is an event that occurs when the deployment lock for a
// target has been acquired.
type LockAcquired struct {
	Deployment rsdeploy.DeploymentID
	Resource   string
	Waited     time.Duration
}

// Component identifies the component that generated the event.
func (e LockAcquired) Component() string {
	return "lock"
}

// Level returns the level of the event.
func (e LockAcquired) Level() slog.Level {
	return slog.LevelDebug
}

// Message returns a description of the event.
func (e LockAcquired) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WriteStandard(fmt.Sprintf("Acquired the deployment lock for \"%s\".", e.Resource))
	builder.WriteNote(e.Waited.Round(time.Millisecond).String())

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e LockAcquired) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e LockAcquired) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("resource", e.Resource),
		slog.Duration("waited", e.Waited),
	}
}

// LockNotAcquired is an event that occurs when the deployment lock for a
// target could not be acquired.
type LockNotAcquired struct {
	Deployment rsdeploy.DeploymentID
	Resource   string
	Timeout    time.Duration
	Err        error
}

// Component identifies the component that generated the event.
func (e LockNotAcquired) Component() string {
	return "lock"
}

// Level returns the level of the event.
func (e LockNotAcquired) Level() slog.Level {
	return slog.LevelError
}

// Message returns a description of the event.
func (e LockNotAcquired) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WriteStandard(fmt.Sprintf("Failed to acquire the deployment lock for \"%s\": %s.", e.Resource, e.Err))
	builder.WriteNote(e.Timeout.String())

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e LockNotAcquired) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e LockNotAcquired) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("resource", e.Resource),
		slog.Duration("timeout", e.Timeout),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}
	return attrs
}
