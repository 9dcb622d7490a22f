package queue

import "context"

// Client publishes draft lifecycle events to a queue backend for
// downstream consumers. Implementations must be safe for concurrent
// use; the engine publishes from per-session goroutines.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
