package rsevent

// Handler is an event handler that is capable of processing events in
// Rootstock.
type Handler interface {
	// Name returns a name for the handler.
	Name() string

	// Handle processes the given event record.
	Handle(Record) error
}
