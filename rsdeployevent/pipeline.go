// Package rsdeployevent defines the events recorded while a Rootstock
// deployment runs.
package rsdeployevent

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gentlemanautomaton/structformat"
	"github.com/leafbridge/rootstock/rsdeploy"
)

// PipelineStarted is an event that occurs when a deployment pipeline has
// started.
type PipelineStarted struct {
	Deployment  rsdeploy.DeploymentID
	Target      rsdeploy.TargetID
	PackagePath string
}

// Component identifies the component that generated the event.
func (e PipelineStarted) Component() string {
	return "pipeline"
}

// Level returns the level of the event.
func (e PipelineStarted) Level() slog.Level {
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e PipelineStarted) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WritePrimary(e.Target.Key())
	builder.WriteStandard("Starting deployment.")
	builder.WriteNote(e.PackagePath)

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e PipelineStarted) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e PipelineStarted) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("target", e.Target.Key()),
		slog.String("package", e.PackagePath),
	}
}

// PipelineStopped is an event that occurs when a deployment pipeline has
// stopped.
type PipelineStopped struct {
	Deployment rsdeploy.DeploymentID
	Target     rsdeploy.TargetID
	Started    time.Time
	Stopped    time.Time
	Skipped    bool
	Err        error
}

// Component identifies the component that generated the event.
func (e PipelineStopped) Component() string {
	return "pipeline"
}

// Level returns the level of the event.
func (e PipelineStopped) Level() slog.Level {
	if e.Err != nil {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e PipelineStopped) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WritePrimary(e.Target.Key())
	switch {
	case e.Err != nil:
		builder.WriteStandard(fmt.Sprintf("Stopped deployment due to an error: %s.", e.Err))
	case e.Skipped:
		builder.WriteStandard("The target is already up to date. Nothing was changed.")
	default:
		builder.WriteStandard("Completed deployment.")
	}
	builder.WriteNote(e.Duration().Round(time.Millisecond * 10).String())

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e PipelineStopped) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e PipelineStopped) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("target", e.Target.Key()),
		slog.Time("started", e.Started),
		slog.Time("stopped", e.Stopped),
		slog.Bool("skipped", e.Skipped),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}
	return attrs
}

// Duration returns the duration of the pipeline.
func (e PipelineStopped) Duration() time.Duration {
	return e.Stopped.Sub(e.Started)
}
