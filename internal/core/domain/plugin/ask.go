package plugin

import (
	"context"
	"fmt"
	"strings"
	"wabot/internal/core/domain"
	"wabot/internal/core/port"

	"github.com/rs/zerolog/log"
)

type Ask struct {
	generator port.TextGenerator
	model     domain.Model
	usage     string
}

// NewAsk creates the ask plugin. prefix is only used to render the usage reply.
func NewAsk(generator port.TextGenerator, model, prefix string) *Ask {
	return &Ask{
		generator: generator,
		model:     domain.Model{Identifier: model},
		usage:     fmt.Sprintf(askUsage, prefix),
	}
}

func (a *Ask) Name() string {
	return "ask"
}

func (a *Ask) Description() string {
	return "Asks the language model a question"
}

const askUsage = "Usage: %sask <question>"

func (a *Ask) Execute(ctx context.Context, inv *port.Invocation) error {
	l := log.With().
		Str("chatId", inv.ChatID).
		Str("command", a.Name()).
		Logger()

	prompt := strings.Join(inv.Args, " ")
	if prompt == "" {
		l.Debug().Msg("empty prompt")

		if err := inv.Sender.SendText(ctx, inv.ChatID, a.usage); err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
		return nil
	}

	var prompts []domain.Prompt

	if inv.Message != nil && inv.Message.QuotedText != "" {
		prompts = append(prompts, domain.Prompt{Prompt: inv.Message.QuotedText, Author: domain.User, Model: a.model})
	}
	prompts = append(prompts, domain.Prompt{Prompt: prompt, Author: domain.User, Model: a.model})

	l.Info().Int("prompts", len(prompts)).Msg("handling request")

	resp, err := a.generator.GenerateFromPrompt(ctx, prompts)
	if err != nil {
		return fmt.Errorf("failed to generate response: %w", err)
	}

	l.Debug().
		Str("model", resp.Metadata.Model).
		Int("totalTokens", resp.Metadata.TotalTokens).
		Msg("received response")

	if err := inv.Sender.SendText(ctx, inv.ChatID, resp.Response); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
