// internal/events/handler.go
package events

import "context"

// Handler consumes one event type off the bus. Handlers run on bus
// goroutines and should hand long work off rather than block delivery.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Subscription is the detach handle returned by Subscribe. The recorder and
// metrics collector hold theirs for the daemon's shutdown path.
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	id  string
	bus *Bus
	typ EventType
}

func (s *subscription) Unsubscribe() {
	s.bus.unsubscribe(s.id, s.typ)
}
