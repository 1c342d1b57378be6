package domain

import "context"

// Handler processes one canonical inbound message end to end and produces
// the canonical reply. Implemented by the engine; channels depend on this
// instead of the engine type so tests can substitute fakes.
type Handler interface {
	Handle(ctx context.Context, msg IncomingMessage) (Reply, error)
}

// Channel is a user-facing transport (HTTP gateway, Telegram, CLI).
// Start blocks until the context is cancelled or the channel fails.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
}
