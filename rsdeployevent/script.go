package rsdeployevent

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gentlemanautomaton/structformat"
	"github.com/leafbridge/rootstock/rsdeploy"
)

// ScriptStarted is an event that occurs when a deployment script has
// started.
type ScriptStarted struct {
	Deployment rsdeploy.DeploymentID
	Phase      rsdeploy.Phase
	Layer      rsdeploy.ScriptLayer
	Name       string
}

// Component identifies the component that generated the event.
func (e ScriptStarted) Component() string {
	return "script"
}

// Level returns the level of the event.
func (e ScriptStarted) Level() slog.Level {
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e ScriptStarted) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WritePrimary(string(e.Phase))
	builder.WriteStandard(fmt.Sprintf("Starting the \"%s\" script.", e.Name))
	builder.WriteNote(string(e.Layer))

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e ScriptStarted) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e ScriptStarted) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("phase", string(e.Phase)),
		slog.String("layer", string(e.Layer)),
		slog.String("name", e.Name),
	}
}

// ScriptStopped is an event that occurs when a deployment script has
// stopped.
type ScriptStopped struct {
	Deployment rsdeploy.DeploymentID
	Phase      rsdeploy.Phase
	Layer      rsdeploy.ScriptLayer
	Name       string
	Output     string
	Started    time.Time
	Stopped    time.Time
	Err        error
}

// Component identifies the component that generated the event.
func (e ScriptStopped) Component() string {
	return "script"
}

// Level returns the level of the event.
func (e ScriptStopped) Level() slog.Level {
	if e.Err != nil {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e ScriptStopped) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WritePrimary(string(e.Phase))
	if e.Err != nil {
		builder.WriteStandard(fmt.Sprintf("The \"%s\" script stopped due to an error: %s.", e.Name, e.Err))
	} else {
		builder.WriteStandard(fmt.Sprintf("Completed the \"%s\" script.", e.Name))
	}
	builder.WriteNote(e.Duration().Round(time.Millisecond * 10).String())

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e ScriptStopped) Details() string {
	if e.Output == "" {
		return ""
	}

	return fmt.Sprintf("%s\n%s", e.Name, e.Output)
}

// Attrs returns a set of structured log attributes for the event.
func (e ScriptStopped) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("phase", string(e.Phase)),
		slog.String("layer", string(e.Layer)),
		slog.String("name", e.Name),
		slog.Time("started", e.Started),
		slog.Time("stopped", e.Stopped),
	}
	if e.Output != "" {
		attrs = append(attrs, slog.String("output", e.Output))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}
	return attrs
}

// Duration returns the duration of the script.
func (e ScriptStopped) Duration() time.Duration {
	return e.Stopped.Sub(e.Started)
}
