package plugin

import (
	"context"
	"fmt"
	"wabot/internal/core/port"
)

type Ping struct{}

func NewPing() *Ping {
	return &Ping{}
}

func (p *Ping) Name() string {
	return "ping"
}

func (p *Ping) Description() string {
	return "Replies with pong"
}

const pong = "pong 🏓"

func (p *Ping) Execute(ctx context.Context, inv *port.Invocation) error {
	if err := inv.Sender.SendText(ctx, inv.ChatID, pong); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
