package port

import (
	"context"
	"wabot/internal/core/domain"
)

type Gateway interface {
	// Connect authenticates the session and starts receiving events.
	Connect(ctx context.Context) error
	// Messages returns the stream of inbound messages.
	Messages() <-chan *domain.Message
	// Disconnect closes the session and releases its resources.
	Disconnect()
}
