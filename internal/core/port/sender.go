package port

import "context"

type TextSender interface {
	// SendText sends a plain text message to the conversation identified by chatID.
	SendText(ctx context.Context, chatID string, text string) error
}
