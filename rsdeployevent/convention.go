package rsdeployevent

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gentlemanautomaton/structformat"
	"github.com/leafbridge/rootstock/rsdeploy"
)

// ConventionStarted is an event that occurs when a deployment convention
// has started.
type ConventionStarted struct {
	Deployment rsdeploy.DeploymentID
	Convention string
	Position   int
	Total      int
}

// Component identifies the component that generated the event.
func (e ConventionStarted) Component() string {
	return "convention"
}

// Level returns the level of the event.
func (e ConventionStarted) Level() slog.Level {
	return slog.LevelDebug
}

// Message returns a description of the event.
func (e ConventionStarted) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WritePrimary(e.Convention)
	builder.WriteStandard("Starting convention.")
	builder.WriteNote(fmt.Sprintf("%d of %d", e.Position, e.Total))

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e ConventionStarted) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e ConventionStarted) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("convention", e.Convention),
		slog.Int("position", e.Position),
		slog.Int("total", e.Total),
	}
}

// ConventionStopped is an event that occurs when a deployment convention
// has stopped.
type ConventionStopped struct {
	Deployment rsdeploy.DeploymentID
	Convention string
	Position   int
	Total      int
	Started    time.Time
	Stopped    time.Time
	Err        error
}

// Component identifies the component that generated the event.
func (e ConventionStopped) Component() string {
	return "convention"
}

// Level returns the level of the event.
func (e ConventionStopped) Level() slog.Level {
	if e.Err != nil {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Message returns a description of the event.
func (e ConventionStopped) Message() string {
	var builder structformat.Builder

	builder.WritePrimary(string(e.Deployment))
	builder.WritePrimary(e.Convention)
	if e.Err != nil {
		builder.WriteStandard(fmt.Sprintf("Stopped convention due to an error: %s.", e.Err))
	} else {
		builder.WriteStandard("Completed convention.")
	}
	builder.WriteNote(e.Duration().Round(time.Millisecond * 10).String())

	return builder.String()
}

// Details returns additional details about the event. It might include
// multiple lines of text. An empty string is returned when no details
// are available.
func (e ConventionStopped) Details() string {
	return ""
}

// Attrs returns a set of structured log attributes for the event.
func (e ConventionStopped) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("deployment", string(e.Deployment)),
		slog.String("convention", e.Convention),
		slog.Int("position", e.Position),
		slog.Int("total", e.Total),
		slog.Time("started", e.Started),
		slog.Time("stopped", e.Stopped),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}
	return attrs
}

// Duration returns the duration of the convention.
func (e ConventionStopped) Duration() time.Duration {
	return e.Stopped.Sub(e.Started)
}
