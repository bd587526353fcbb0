package plugin

import (
	"context"
	"fmt"
	"strings"
	"wabot/internal/core/port"
)

// Help lists the registered plugins. The list function is consulted on every invocation, so it can refer to a
// registry that is built after the plugin itself.
type Help struct {
	prefix string
	list   func() []port.Plugin
}

func NewHelp(prefix string, list func() []port.Plugin) *Help {
	return &Help{prefix: prefix, list: list}
}

func (h *Help) Name() string {
	return "help"
}

func (h *Help) Description() string {
	return "Lists available commands"
}

func (h *Help) Execute(ctx context.Context, inv *port.Invocation) error {
	var plugins []port.Plugin
	if h.list != nil {
		plugins = h.list()
	}

	sb := &strings.Builder{}
	sb.WriteString("Available commands:\n")

	for _, p := range plugins {
		if p.Description() == "" {
			_, _ = fmt.Fprintf(sb, "\n%s%s", h.prefix, strings.ToLower(p.Name()))
			continue
		}
		_, _ = fmt.Fprintf(sb, "\n%s%s - %s", h.prefix, strings.ToLower(p.Name()), p.Description())
	}

	if err := inv.Sender.SendText(ctx, inv.ChatID, sb.String()); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
