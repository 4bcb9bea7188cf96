package rsevent

import (
	"context"
	"log/slog"
)

// LoggedHandler is a Rootstock event handler that sends events to
// a structured log handler.
type LoggedHandler struct {
	Handler slog.Handler
}

// Name returns a name for the handler.
func (lh LoggedHandler) Name() string {
	return "structured-log"
}

// Handle processes the given event record.
func (lh LoggedHandler) Handle(r Record) error {
	h := lh.Handler
	if lh.Handler == nil {
		h = slog.Default().Handler()
	}
	return h.Handle(context.Background(), r.ToLog())
}
