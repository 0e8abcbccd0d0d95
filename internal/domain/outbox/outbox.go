package outbox

import "context"

// Event is a named fact about the order lifecycle, published after the owning
// transaction commits.
type Event interface {
	EventName() string
}

// Handler consumes one published event. Returning an error marks the delivery
// failed for that handler only.
type Handler func(ctx context.Context, e Event) error

// Publisher hands events to the bus.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers a handler for an event name.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
